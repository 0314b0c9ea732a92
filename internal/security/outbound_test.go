package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOutboundGuard_NewClient_SetsTimeoutAndTransport(t *testing.T) {
	guard := NewOutboundGuard()
	client := guard.NewClient(5 * time.Second)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want %v", client.Timeout, 5*time.Second)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected safeurl transport to be set")
	}
}

// httptestサーバーはループバック上のhttpで起動されるため、接続は拒否される。
func TestOutboundGuard_NewClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewOutboundGuard().NewClient(5 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback request, got nil")
	}
}

func TestOutboundGuard_ValidateEndpoint_Accepts(t *testing.T) {
	guard := NewOutboundGuard()

	for _, u := range []string{
		"https://discord.com/api/oauth2/token",
		"https://discord.com/api/users/@me",
		"https://DISCORD.COM/api/oauth2/authorize",
	} {
		t.Run(u, func(t *testing.T) {
			if err := guard.ValidateEndpoint(u); err != nil {
				t.Errorf("ValidateEndpoint(%q) returned error: %v", u, err)
			}
		})
	}
}

func TestOutboundGuard_ValidateEndpoint_Rejects(t *testing.T) {
	guard := NewOutboundGuard()

	for _, u := range []string{
		"",
		"not-a-url",
		"http://discord.com/api/oauth2/token",
		"ftp://discord.com",
		"https://localhost/token",
		"https://127.0.0.1/token",
		"https://10.1.2.3/token",
		"https://192.168.0.10/token",
		"https://169.254.169.254/latest/meta-data/",
		"https://[::1]/token",
		"https://[::ffff:127.0.0.1]/token",
		"https://0.0.0.0/token",
	} {
		t.Run(u, func(t *testing.T) {
			if err := guard.ValidateEndpoint(u); err == nil {
				t.Errorf("ValidateEndpoint(%q) should have returned error", u)
			}
		})
	}
}
