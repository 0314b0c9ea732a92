package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hitoshi/bingo/internal/model"
)

func TestDiscordOAuthProvider_GetLoginURL_ContainsRequiredParams(t *testing.T) {
	provider := NewDiscordOAuthProvider(DiscordOAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost:8080/login/discord/callback",
	})

	raw := provider.GetLoginURL("test-state-value")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	if u.Host != "discord.com" {
		t.Errorf("host = %q, want discord.com", u.Host)
	}

	q := u.Query()
	tests := []struct {
		param string
		want  string
	}{
		{"client_id", "test-client-id"},
		{"redirect_uri", "http://localhost:8080/login/discord/callback"},
		{"state", "test-state-value"},
		{"response_type", "code"},
		{"scope", "identify"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			if got := q.Get(tt.param); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.param, got, tt.want)
			}
		})
	}
}

// newDiscordStub はトークンエンドポイントとユーザー情報エンドポイントを持つテストサーバーを立てる。
func newDiscordStub(t *testing.T, tokenStatus int, user map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("client_secret") != "test-secret" {
			t.Errorf("client_secret should be sent in params, got %q", r.Form.Get("client_secret"))
		}
		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   604800,
		})
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("unexpected Authorization header: %q", got)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newStubProvider(ts *httptest.Server) *DiscordOAuthProvider {
	return NewDiscordOAuthProvider(DiscordOAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/login/discord/callback",
		AuthURL:      ts.URL + "/authorize",
		TokenURL:     ts.URL + "/token",
		UserInfoURL:  ts.URL + "/users/@me",
		HTTPClient:   ts.Client(),
	})
}

func TestDiscordOAuthProvider_ExchangeCode_Success(t *testing.T) {
	ts := newDiscordStub(t, http.StatusOK, map[string]any{
		"id":            "80351110224678912",
		"username":      "Nelly",
		"locale":        "en-US",
		"discriminator": "1337",
		"avatar":        "8342729096ea3675442027381ff50dfe",
	})

	identity, err := newStubProvider(ts).ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	want := model.Identity{
		ExternalID:    80351110224678912,
		DisplayName:   "Nelly",
		Locale:        "en-US",
		Discriminator: "1337",
		AvatarHash:    "8342729096ea3675442027381ff50dfe",
	}
	if *identity != want {
		t.Errorf("identity = %+v, want %+v", *identity, want)
	}
}

func TestDiscordOAuthProvider_ExchangeCode_NullAvatar(t *testing.T) {
	ts := newDiscordStub(t, http.StatusOK, map[string]any{
		"id":       "7",
		"username": "noavatar",
		"avatar":   nil,
	})

	identity, err := newStubProvider(ts).ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	if identity.AvatarHash != "" {
		t.Errorf("AvatarHash = %q, want empty", identity.AvatarHash)
	}
}

func TestDiscordOAuthProvider_ExchangeCode_Failures(t *testing.T) {
	tests := []struct {
		name        string
		tokenStatus int
		user        map[string]any
	}{
		{"token endpoint error", http.StatusBadRequest, nil},
		{"missing id", http.StatusOK, map[string]any{"username": "x"}},
		{"non numeric id", http.StatusOK, map[string]any{"id": "abc"}},
		{"negative id", http.StatusOK, map[string]any{"id": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newDiscordStub(t, tt.tokenStatus, tt.user)

			_, err := newStubProvider(ts).ExchangeCode(context.Background(), "auth-code")
			if !errors.Is(err, model.ErrIdentityProvider) {
				t.Errorf("error = %v, want ErrIdentityProvider", err)
			}
		})
	}
}

func TestDiscordOAuthProvider_ExchangeCode_UserInfoStatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "token_type": "Bearer"})
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	provider := NewDiscordOAuthProvider(DiscordOAuthConfig{
		TokenURL:    ts.URL + "/token",
		UserInfoURL: ts.URL + "/users/@me",
		HTTPClient:  ts.Client(),
	})

	_, err := provider.ExchangeCode(context.Background(), "auth-code")
	if !errors.Is(err, model.ErrIdentityProvider) {
		t.Errorf("error = %v, want ErrIdentityProvider", err)
	}
}

func TestDiscordOAuthProvider_ExchangeCode_CanceledContext(t *testing.T) {
	ts := newDiscordStub(t, http.StatusOK, map[string]any{"id": "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newStubProvider(ts).ExchangeCode(ctx, "auth-code"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestDiscordOAuthProvider_Endpoints_Defaults(t *testing.T) {
	provider := NewDiscordOAuthProvider(DiscordOAuthConfig{})
	got := provider.Endpoints()
	want := []string{defaultDiscordAuthURL, defaultDiscordTokenURL, defaultDiscordUserInfoURL}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Endpoints()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
