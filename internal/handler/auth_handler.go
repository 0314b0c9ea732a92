// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bingo/internal/metrics"
	"github.com/hitoshi/bingo/internal/middleware"
	"github.com/hitoshi/bingo/internal/model"
)

const (
	oauthStateCookie = "oauth_state"
	loginFailedPath  = "/?login=failed"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// SessionTokens はセッションIDとCookie値（署名付きトークン）の相互変換を行う。
type SessionTokens interface {
	Encode(session *model.Session) (string, error)
	Decode(token string) (string, error)
}

// LoginRecorder はログイン結果を記録する。
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はDiscordログインとログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	tokens   SessionTokens
	recorder LoginRecorder
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, tokens SessionTokens, recorder LoginRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		tokens:   tokens,
		recorder: recorder,
		config:   config,
	}
}

// Login はDiscord OAuthフローを開始する。
// GET /login/discord/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// 失敗時はセッションを作らず /?login=failed へリダイレクトする。
// GET /login/discord/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// 1. stateの検証（CSRF対策）
	state := query.Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		h.failLogin(w, r)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得（同意拒否時はerrorパラメータのみが返る）
	code := query.Get("code")
	if code == "" {
		slog.Warn("oauth callback without code", slog.String("provider_error", query.Get("error")))
		h.failLogin(w, r)
		return
	}

	// 3. 認証処理
	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.failLogin(w, r)
		return
	}

	token, err := h.tokens.Encode(session)
	if err != nil {
		slog.Error("failed to sign session token", slog.String("error", err.Error()))
		h.failLogin(w, r)
		return
	}

	// 4. セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.record(metrics.LoginSuccess)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄する。
// GET /logout/
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var deleteErr error
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		// 不正なトークンは削除対象のセッションがないものとして扱う
		if sessionID, err := h.tokens.Decode(cookie.Value); err == nil {
			deleteErr = h.service.DeleteSession(r.Context(), sessionID)
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if deleteErr != nil {
		slog.Error("failed to delete session", slog.String("error", deleteErr.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request) {
	h.record(metrics.LoginFailure)
	http.Redirect(w, r, loginFailedPath, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.RecordLogin(outcome)
	}
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
