package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/hitoshi/bingo/internal/model"
)

const (
	defaultDiscordAuthURL     = "https://discord.com/api/oauth2/authorize"
	defaultDiscordTokenURL    = "https://discord.com/api/oauth2/token"
	defaultDiscordUserInfoURL = "https://discord.com/api/users/@me"

	// ユーザー情報レスポンスの読み取り上限
	maxUserInfoBytes = 1 << 20
)

// DiscordOAuthConfig はDiscord OAuthプロバイダーの設定。
type DiscordOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// IdPとの通信に使うHTTPクライアント。nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client
}

// DiscordOAuthProvider はDiscord OAuth 2.0による認証を提供する。
type DiscordOAuthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewDiscordOAuthProvider はDiscordOAuthProviderを生成する。
func NewDiscordOAuthProvider(config DiscordOAuthConfig) *DiscordOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultDiscordAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultDiscordTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultDiscordUserInfoURL
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &DiscordOAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: config.UserInfoURL,
		client:      client,
	}
}

// Endpoints は外部通信先のURLを返す。起動時の検証に使う。
func (p *DiscordOAuthProvider) Endpoints() []string {
	return []string{p.oauth.Endpoint.AuthURL, p.oauth.Endpoint.TokenURL, p.userInfoURL}
}

// GetLoginURL はDiscordの認可URLを生成する。スコープはidentifyのみ。
func (p *DiscordOAuthProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// discordUser は/users/@meのレスポンス。idはsnowflake文字列。
type discordUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Locale        string  `json:"locale"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
// 失敗した場合はmodel.ErrIdentityProviderをラップしたエラーを返す。
func (p *DiscordOAuthProvider) ExchangeCode(ctx context.Context, code string) (*model.Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	// 1. 認可コードをアクセストークンに交換
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", model.ErrIdentityProvider, err)
	}

	// 2. アクセストークンでユーザー情報を取得
	user, err := p.fetchUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrIdentityProvider, err)
	}

	externalID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil || externalID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id %q", model.ErrIdentityProvider, user.ID)
	}

	identity := &model.Identity{
		ExternalID:    externalID,
		DisplayName:   user.Username,
		Locale:        user.Locale,
		Discriminator: user.Discriminator,
	}
	if user.Avatar != nil {
		identity.AvatarHash = *user.Avatar
	}
	return identity, nil
}

// fetchUser はアクセストークン付きのクライアントで/users/@meを取得する。
func (p *DiscordOAuthProvider) fetchUser(ctx context.Context, token *oauth2.Token) (*discordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d", resp.StatusCode)
	}

	var user discordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("empty id in user info response")
	}

	return &user, nil
}

// compile-time interface check
var _ OAuthProvider = (*DiscordOAuthProvider)(nil)
