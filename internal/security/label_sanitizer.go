// Package security はアプリケーションのセキュリティ機能を提供する。
//
// LabelSanitizer は管理者が登録した候補ラベルやIdPから受け取った表示名から
// HTMLマークアップを除去し、プレーンテキストとして扱える形に正規化する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// LabelSanitizer はラベル文字列のサニタイズ機能を提供する。
// bluemondayのStrictPolicyを保持し、並行利用しても安全。
type LabelSanitizer struct {
	policy *bluemonday.Policy
}

// NewLabelSanitizer はLabelSanitizerを生成する。
// タグはすべて除去され、テキストのみが残る。
func NewLabelSanitizer() *LabelSanitizer {
	return &LabelSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean はタグを除去し、前後と連続する空白を1つにまとめたプレーンテキストを返す。
// StrictPolicyがエスケープした文字参照は元の文字に戻す。
// 表示側（JSONの利用者）でエスケープされる前提。
func (s *LabelSanitizer) Clean(raw string) string {
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(stripped), " ")
}
