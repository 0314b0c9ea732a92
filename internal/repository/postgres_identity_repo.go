package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/bingo/internal/model"
)

// PostgresIdentityRepo はPostgreSQLを使用したidentityリポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// FindByExternalID は外部IDでidentityを取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByExternalID(ctx context.Context, externalID int64) (*model.Identity, error) {
	identity := &model.Identity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT external_id, display_name, locale, discriminator, avatar_hash, created_at
		 FROM identities
		 WHERE external_id = $1`,
		externalID,
	).Scan(
		&identity.ExternalID, &identity.DisplayName, &identity.Locale,
		&identity.Discriminator, &identity.AvatarHash, &identity.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	return identity, nil
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
