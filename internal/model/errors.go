// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// クライアントに返すHTTPステータスとメッセージ、およびログ用のエラーコードを保持する。
type APIError struct {
	Status  int    // HTTPステータスコード
	Code    string // エラーコード（ログ・メトリクス用。クライアントには返さない）
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnavailable     = "UNAVAILABLE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewUnauthenticatedError は認証失敗エラーを生成する。
// 資格情報の欠落・署名不正・期限切れを区別せず、同一メッセージを返す
// （区別を返すと攻撃者へのオラクルになるため）。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeUnauthenticated,
		Message: "Authentication required",
	}
}

// NewForbiddenError はロール不足エラーを生成する。
// 有効なIdentityを持つが、ルートの要求ロールに含まれない場合にのみ使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    ErrCodeForbidden,
		Message: "Insufficient permissions",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Status:  http.StatusTooManyRequests,
		Code:    ErrCodeRateLimited,
		Message: "Too many requests, please try again later",
	}
}

// NewRouteNotFoundError は未定義ルートへのアクセスエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    ErrCodeNotFound,
		Message: "Route not found",
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewBadRequestError は不正入力エラーを生成する。
func NewBadRequestError(reason string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeBadRequest,
		Message: reason,
	}
}

// NewUnavailableError は依存先障害エラーを生成する。
func NewUnavailableError() *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    ErrCodeUnavailable,
		Message: "Service temporarily unavailable",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Message: "An unexpected error occurred",
	}
}
