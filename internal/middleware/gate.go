// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/bingo/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// decisionContextKey はリクエストコンテキストに認可判定を格納するためのキー。
	decisionContextKey = contextKey("decision")
	// clientIPContextKey はリクエストコンテキストにクライアントIPを格納するためのキー。
	clientIPContextKey = contextKey("client_ip")
)

// Authorizer はセッションCookieの値を認可判定に変換する。
type Authorizer interface {
	Authorize(ctx context.Context, cookieValue string) model.Decision
}

// NewGateMiddleware はセッションCookieを認可ゲートに通し、
// 判定結果をリクエストコンテキストに注入するミドルウェアを返す。
// 未ログインでもリクエストは拒否せず、判定に応じた振る舞いはハンドラーに委ねる。
func NewGateMiddleware(authorizer Authorizer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var value string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				value = cookie.Value
			}

			decision := authorizer.Authorize(r.Context(), value)
			next.ServeHTTP(w, r.WithContext(ContextWithDecision(r.Context(), decision)))
		})
	}
}

// DecisionFromContext はリクエストコンテキストから認可判定を取得する。
// ゲートを通過していない場合は未ログインの判定を返す。
func DecisionFromContext(ctx context.Context) model.Decision {
	decision, ok := ctx.Value(decisionContextKey).(model.Decision)
	if !ok {
		return model.Anonymous()
	}
	return decision
}

// ContextWithDecision はコンテキストに認可判定を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithDecision(ctx context.Context, decision model.Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey, decision)
}

// userIDFromContext は認可判定からユーザーの外部IDを取得する。
func userIDFromContext(ctx context.Context) (int64, bool) {
	decision := DecisionFromContext(ctx)
	if decision.Identity == nil {
		return 0, false
	}
	return decision.Identity.ExternalID, true
}
