package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// NewSameSiteGuard は盤面を変更するGETリクエストが他サイトから送られた場合に、
// 認可判定をallowed=falseに落とすミドルウェアを返す。
// リクエストは拒否せず、ハンドラーは通常どおり未許可として応答する。
//
// Sec-Fetch-Siteヘッダーがあればそれを使い、なければOrigin、Refererの順に
// baseURLのホストと比較する。いずれもない場合は同一サイトとみなす。
func NewSameSiteGuard(baseURL string) func(next http.Handler) http.Handler {
	var baseHost string
	if u, err := url.Parse(baseURL); err == nil {
		baseHost = strings.ToLower(u.Host)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isCrossSite(r, baseHost) {
				next.ServeHTTP(w, r)
				return
			}

			decision := DecisionFromContext(r.Context())
			if decision.Allowed {
				slog.Warn("cross-site request downgraded",
					slog.String("path", r.URL.Path),
					slog.Int64("user_id", decision.Identity.ExternalID),
				)
			}
			decision.Allowed = false
			next.ServeHTTP(w, r.WithContext(ContextWithDecision(r.Context(), decision)))
		})
	}
}

// isCrossSite はリクエストが他サイトを起点としているかを判定する。
func isCrossSite(r *http.Request, baseHost string) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "same-origin", "same-site", "none":
		return false
	case "cross-site":
		return true
	}

	for _, header := range []string{"Origin", "Referer"} {
		raw := r.Header.Get(header)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return true
		}
		return !strings.EqualFold(u.Host, baseHost)
	}
	return false
}
