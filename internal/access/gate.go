// Package access は認可ゲートを提供する。
// リクエストのセッションCookieを{identity, logged_in, allowed}の判定に変換する唯一の箇所で、
// 盤面を扱う処理はこの判定のみを参照する。
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/bingo/internal/metrics"
	"github.com/hitoshi/bingo/internal/model"
)

// TokenDecoder はセッションCookieの値からセッションIDを取り出す。
type TokenDecoder interface {
	Decode(token string) (string, error)
}

// SessionResolver はセッションIDからidentityを解決する。
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*model.Identity, error)
}

// AllowList は許可リストの照会を提供する。
type AllowList interface {
	IsAllowed(ctx context.Context, externalID int64) (bool, error)
}

// DecisionRecorder は判定結果を記録する。
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

// Gate は認可ゲート。
type Gate struct {
	tokens   TokenDecoder
	sessions SessionResolver
	allow    AllowList
	recorder DecisionRecorder
}

// NewGate はGateを生成する。
func NewGate(tokens TokenDecoder, sessions SessionResolver, allow AllowList, recorder DecisionRecorder) *Gate {
	return &Gate{
		tokens:   tokens,
		sessions: sessions,
		allow:    allow,
		recorder: recorder,
	}
}

// Authorize はセッションCookieの値から認可判定を返す。
// Cookieの不正やセッションの未登録は未ログインとして扱う。
// セッションまたは許可リストの読み込みに失敗した場合はallowed=falseとする。
func (g *Gate) Authorize(ctx context.Context, cookieValue string) model.Decision {
	if cookieValue == "" {
		g.recorder.RecordDecision(metrics.DecisionAnonymous)
		return model.Anonymous()
	}

	sessionID, err := g.tokens.Decode(cookieValue)
	if err != nil {
		if !errors.Is(err, model.ErrMalformedSessionToken) {
			slog.Warn("unexpected session token error", slog.String("error", err.Error()))
		}
		g.recorder.RecordDecision(metrics.DecisionAnonymous)
		return model.Anonymous()
	}

	identity, err := g.sessions.ResolveSession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to resolve session", slog.String("error", err.Error()))
		g.recorder.RecordDecision(metrics.DecisionError)
		return model.Anonymous()
	}
	if identity == nil {
		g.recorder.RecordDecision(metrics.DecisionAnonymous)
		return model.Anonymous()
	}

	decision := model.Decision{Identity: identity, LoggedIn: true}

	allowed, err := g.allow.IsAllowed(ctx, identity.ExternalID)
	if err != nil {
		slog.Error("failed to load allow list",
			slog.Int64("user_id", identity.ExternalID),
			slog.String("error", err.Error()),
		)
		g.recorder.RecordDecision(metrics.DecisionError)
		return decision
	}

	decision.Allowed = allowed
	if allowed {
		g.recorder.RecordDecision(metrics.DecisionAllowed)
	} else {
		g.recorder.RecordDecision(metrics.DecisionDenied)
	}
	return decision
}
