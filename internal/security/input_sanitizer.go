// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService はリクエストボディやクエリに含まれる文字列値から
// マークアップやスクリプト注入パターンを除去し、ハンドラーや永続化層に
// 到達する前に入力を無害化する。bluemondayライブラリのStrictPolicyを
// 使用し、HTMLタグを一切許可しない。
package security

import "github.com/microcosm-cc/bluemonday"

// InputSanitizerService は入力文字列のサニタイズ機能のインターフェースを定義する。
// すべてのハンドラーの前段（認証よりも前）で使用される。
type InputSanitizerService interface {
	// Sanitize は文字列からHTMLタグ・スクリプト断片を除去して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeValue はデコード済みJSON構造を再帰的に走査し、
	// すべての文字列値をサニタイズした構造を返す。
	// 文字列以外の値（数値・真偽値・null）は変更しない。
	// マップのキーは変更しない。予期しない型はそのまま通過させる。
	SanitizeValue(v any) any
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。入力はリッチテキストではないため、
// 許可リストは空で構わない。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は文字列からHTMLタグ・スクリプト断片を除去して返す。
func (s *inputSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// SanitizeValue はデコード済みJSON構造を再帰的に走査し、
// すべての文字列値をサニタイズした構造を返す。
func (s *inputSanitizer) SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.policy.Sanitize(val)
	case map[string]any:
		// キーは変更せず、値のみをサニタイズする
		for k, elem := range val {
			val[k] = s.SanitizeValue(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = s.SanitizeValue(elem)
		}
		return val
	default:
		// 数値・真偽値・null・予期しない型はそのまま通す
		return v
	}
}
