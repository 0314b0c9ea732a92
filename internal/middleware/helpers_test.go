package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/hitoshi/bingo/internal/model"
)

// allowedRequest は許可済みユーザーの認可判定を持つリクエストを生成する。
func allowedRequest(path string, userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	decision := model.Decision{
		Identity: &model.Identity{ExternalID: userID},
		LoggedIn: true,
		Allowed:  true,
	}
	return req.WithContext(ContextWithDecision(req.Context(), decision))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
