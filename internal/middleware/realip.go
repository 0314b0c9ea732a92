package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// NewRealIPMiddleware はクライアントIPを決定してコンテキストに注入するミドルウェアを返す。
// trustedProxyが空の場合は常に接続元アドレスを使う。
// 接続元がtrustedProxyと一致する場合に限り、X-Forwarded-Forの末尾
// （信頼するプロキシが追加した値）を採用する。
func NewRealIPMiddleware(trustedProxy string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteHost(r.RemoteAddr)

			if trustedProxy != "" && ip == trustedProxy {
				if forwarded := lastForwardedFor(r.Header.Get("X-Forwarded-For")); forwarded != "" {
					ip = forwarded
				}
			}

			ctx := context.WithValue(r.Context(), clientIPContextKey, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFromContext はリクエストコンテキストからクライアントIPを取得する。
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey).(string)
	return ip
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// lastForwardedFor はX-Forwarded-Forの最後の有効なIPを返す。
func lastForwardedFor(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ",")
	candidate := strings.TrimSpace(parts[len(parts)-1])
	if net.ParseIP(candidate) == nil {
		return ""
	}
	return candidate
}
