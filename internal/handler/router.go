package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bingo/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authorizer     middleware.Authorizer
	RateLimiter    *middleware.RateLimiter
	StatusRecorder middleware.StatusRecorder
	Logger         *slog.Logger
	BaseURL        string
	TrustedProxy   string

	// 認証
	AuthService   AuthServiceInterface
	SessionTokens SessionTokens
	LoginRecorder LoginRecorder
	AuthConfig    AuthHandlerConfig

	// 盤面
	BoardService BoardServiceInterface

	// 運用
	DB             Pinger
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → SecurityHeaders → Gate → Logging
//
// /health と /metrics はゲートの外に配置する。
// 盤面を変更するルートにはSameSiteGuardを、/ajax/* と /new/ には利用者単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRealIPMiddleware(deps.TrustedProxy))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionTokens, deps.LoginRecorder, deps.AuthConfig)
	boardHandler := NewBoardHandler(deps.BoardService)
	sameSite := middleware.NewSameSiteGuard(deps.BaseURL)

	// --- 運用ルート ---
	r.Get("/health", Health(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 利用者向けルート ---
	// ミドルウェアスタック: Gate → Logging
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewGateMiddleware(deps.Authorizer))
		r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusRecorder))

		r.Get("/", boardHandler.Index)
		r.Get("/logout/", authHandler.Logout)

		// ログイン（Discord OAuth）
		r.Route("/login/discord", func(r chi.Router) {
			r.Get("/", authHandler.Login)
			r.Get("/callback", authHandler.Callback)
		})

		// 盤面作成（作成専用レート制限を追加）
		r.With(sameSite, deps.RateLimiter.NewBoardMiddleware()).Get("/new/", boardHandler.NewBoard)

		r.Route("/ajax", func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/board/", boardHandler.Board)
			r.With(sameSite).Get("/board/flip/{index}", boardHandler.Flip)
			r.Get("/boards/", boardHandler.Boards)
		})
	})

	return r
}
