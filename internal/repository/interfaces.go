// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/bingo/internal/model"
)

// IdentityRepository は外部IdPで検証済みのユーザー情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByExternalID は外部IDでidentityを取得する。見つからない場合はnilを返す。
	FindByExternalID(ctx context.Context, externalID int64) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// CreateWithIdentity はidentity（未登録の場合のみ）とセッションを同一トランザクションで作成する。
	// 登録済みidentityは更新しない。
	CreateWithIdentity(ctx context.Context, identity *model.Identity, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。見つからない、または期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// SettingsRepository は管理者が管理する候補ラベルと許可リストの読み取りインターフェース。
// 本サービスからは書き込まない。
type SettingsRepository interface {
	// ListOptions は候補ラベルを登録順に返す。
	ListOptions(ctx context.Context) ([]string, error)
	// ListAllowedIDs は許可リストの外部IDを返す。
	ListAllowedIDs(ctx context.Context) ([]int64, error)
}

// BoardRepository は盤面の永続化インターフェース。
type BoardRepository interface {
	// Get は指定IDの盤面を取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, id string) (*model.Board, error)

	// Put は既存盤面のマス状態とsolvedを上書きする。
	// 盤面のID、所有者、current、作成日時は変更しない。
	Put(ctx context.Context, board *model.Board) error

	// FindCurrentByUser はユーザーのcurrent盤面を取得する。見つからない場合はnilを返す。
	FindCurrentByUser(ctx context.Context, userID int64) (*model.Board, error)

	// FindAllByUser はユーザーの全盤面を作成日時の降順で返す。
	FindAllByUser(ctx context.Context, userID int64) ([]*model.Board, error)

	// ReplaceCurrent はユーザーの既存盤面をすべてcurrent=falseにした上で、
	// boardをcurrent=trueとして挿入する。2つの操作はユーザー単位で排他され、
	// 同時に読み取る側からcurrent盤面が0枚や2枚に見えることはない。
	ReplaceCurrent(ctx context.Context, board *model.Board) error
}
