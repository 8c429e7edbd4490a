package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/rentlify/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// クライアントにはメッセージのみを返し、内部詳細は含めない。
type ErrorResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Message: apiErr.Message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, model.NewInternalError())
}

// WriteError はエラーを適切なHTTPレスポンスに変換して書き込む。
// *model.APIErrorであればそのステータスとメッセージを、
// それ以外の予期しないエラーは500の一般メッセージで応答する。
// いかなるエラーでも必ずレスポンスを返し、接続を放置しない。
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, apiErr)
		return
	}
	WriteInternalServerError(w)
}
