// Package security はユーザー入力の検査機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキストとして扱う入力からマークアップを除去する。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去したプレーンテキストを返す。
	// エンティティはデコード済みで返すため、タグを含まない入力はそのまま返る。
	Sanitize(s string) string
	// ContainsMarkup は入力にHTMLタグが含まれるかを返す。
	ContainsMarkup(s string) bool
}

// textSanitizer はbluemondayのStrictPolicyを使用したTextSanitizerの実装。
// Policyは生成後は読み取り専用のため並行に使用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

func (s *textSanitizer) ContainsMarkup(in string) bool {
	return s.Sanitize(in) != strings.TrimSpace(in)
}
