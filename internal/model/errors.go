package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, board, system
	Action   string // ユーザー向け対処方法
	Err      error  // 原因となったドメインエラー（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因となったドメインエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// ドメインエラー。errors.Isで判定する。
var (
	ErrInsufficientPool      = errors.New("option pool has fewer than 25 distinct labels")
	ErrNoCurrentBoard        = errors.New("no current board")
	ErrInvalidIndex          = errors.New("cell index out of range")
	ErrMalformedSessionToken = errors.New("malformed session token")
	ErrIdentityProvider      = errors.New("identity provider request failed")
)

// 定義済みエラーコード
const (
	ErrCodeInsufficientPool = "INSUFFICIENT_POOL"
	ErrCodeNoCurrentBoard   = "NO_CURRENT_BOARD"
	ErrCodeInvalidIndex     = "INVALID_INDEX"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewInsufficientPoolError は候補ラベル不足エラーを生成する。
// 管理者の設定ミスであり、利用者側では回復できない。
func NewInsufficientPoolError(distinct int) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientPool,
		Message:  fmt.Sprintf("盤面の候補が不足しています（%d/25件）。", distinct),
		Category: "system",
		Action:   "管理者に候補の追加を依頼してください。",
		Err:      ErrInsufficientPool,
	}
}

// NewNoCurrentBoardError は現在の盤面が存在しない場合のエラーを生成する。
func NewNoCurrentBoardError() *APIError {
	return &APIError{
		Code:     ErrCodeNoCurrentBoard,
		Message:  "現在の盤面がありません。",
		Category: "board",
		Action:   "盤面を再読み込みしてください。",
		Err:      ErrNoCurrentBoard,
	}
}

// NewInvalidIndexError はマス番号が範囲外の場合のエラーを生成する。
func NewInvalidIndexError(index int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidIndex,
		Message:  fmt.Sprintf("無効なマス番号です: %d", index),
		Category: "validation",
		Action:   "マス番号には0から24を指定してください。",
		Err:      ErrInvalidIndex,
	}
}

// NewMalformedIndexError はマス番号が整数として解釈できない場合のエラーを生成する。
func NewMalformedIndexError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidIndex,
		Message:  fmt.Sprintf("無効なマス番号です: %q", raw),
		Category: "validation",
		Action:   "マス番号には0から24を指定してください。",
		Err:      ErrInvalidIndex,
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
