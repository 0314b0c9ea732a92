// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/bingo/internal/model"
	"github.com/hitoshi/bingo/internal/repository"
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、検証済みのidentityを返す。
	ExchangeCode(ctx context.Context, code string) (*model.Identity, error)
}

// Sanitizer は表示名からマークアップを除去する。
type Sanitizer interface {
	Clean(raw string) string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // セッション有効期間
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	identRepo   repository.IdentityRepository
	sessionRepo repository.SessionRepository
	sanitizer   Sanitizer
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	identRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	sanitizer Sanitizer,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		identRepo:   identRepo,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
		config:      config,
		now:         time.Now,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// IdPとの通信に失敗した場合は何も永続化しない。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	identity, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	return s.CreateSession(ctx, identity)
}

// CreateSession はidentityを（未登録であれば）保存し、新しいセッションを発行する。
// 登録済みのidentityは更新しない。
func (s *Service) CreateSession(ctx context.Context, identity *model.Identity) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	stored := *identity
	stored.DisplayName = s.sanitizer.Clean(identity.DisplayName)
	stored.CreatedAt = now

	session := &model.Session{
		ID:         sessionID,
		ExternalID: identity.ExternalID,
		ExpiresAt:  now.Add(s.config.SessionTTL),
		CreatedAt:  now,
	}

	if err := s.sessionRepo.CreateWithIdentity(ctx, &stored, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("session created", slog.Int64("user_id", identity.ExternalID))
	return session, nil
}

// ResolveSession はセッションIDからidentityを取得する。
// IDが空、未登録、期限切れの場合はエラーにせずnilを返す。
// ストレージ障害はエラーとして返す。
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*model.Identity, error) {
	if !validSessionID(sessionID) {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	identity, err := s.identRepo.FindByExternalID(ctx, session.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	return identity, nil
}

// DeleteSession はセッションを破棄する。
// 存在しないIDや空のIDに対しても成功する。
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
