// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は外部IdP（Discord）で検証済みのユーザー情報を表す。
// 初回ログイン時に作成され、以降は更新も削除もされない。
type Identity struct {
	ExternalID    int64     `json:"id"`
	DisplayName   string    `json:"username"`
	Locale        string    `json:"locale"`
	Discriminator string    `json:"discriminator"`
	AvatarHash    string    `json:"avatar"`
	CreatedAt     time.Time `json:"-"`
}

// Session はユーザーのログインセッションを表す。
// 1人のユーザーが複数の独立したセッションを同時に保持できる。
type Session struct {
	ID         string
	ExternalID int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Decision は認可ゲートが下す唯一の認可判定結果。
// 盤面を扱うすべてのハンドラーはこの値のみを参照する。
type Decision struct {
	Identity *Identity
	LoggedIn bool
	Allowed  bool
}

// Anonymous は未ログイン状態の判定を返す。
func Anonymous() Decision {
	return Decision{}
}
