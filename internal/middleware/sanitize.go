package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hitoshi/rentlify/internal/model"
	"github.com/hitoshi/rentlify/internal/security"
)

// maxBodyBytes はリクエストボディの最大サイズ（10MB）。
const maxBodyBytes = 10 << 20

// NewSanitizeMiddleware はリクエストのJSONボディとクエリ文字列に含まれる
// すべての文字列値を無害化するミドルウェアを返す。
// 認証・認可よりも前段に配置し、拒否されるリクエストのペイロードが
// ログ等に混入することも防ぐ。
// JSONとして解釈できないボディや予期しない構造は変更せずそのまま通す。
// フィールド名（キー）は変更しない。
func NewSanitizeMiddleware(sanitizer security.InputSanitizerService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// クエリ文字列の値をサニタイズする
			if r.URL.RawQuery != "" {
				query := r.URL.Query()
				changed := false
				for key, values := range query {
					for i, v := range values {
						clean := sanitizer.Sanitize(v)
						if clean != v {
							values[i] = clean
							changed = true
						}
					}
					query[key] = values
				}
				if changed {
					r.URL.RawQuery = query.Encode()
				}
			}

			if r.Body == nil || !isJSONRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					WriteErrorResponse(w, &model.APIError{
						Status:  http.StatusRequestEntityTooLarge,
						Code:    model.ErrCodeBadRequest,
						Message: "Request body too large",
					})
					return
				}
				WriteErrorResponse(w, model.NewBadRequestError("Failed to read request body"))
				return
			}

			if len(raw) == 0 {
				r.Body = io.NopCloser(bytes.NewReader(raw))
				next.ServeHTTP(w, r)
				return
			}

			var decoded any
			if err := json.Unmarshal(raw, &decoded); err != nil {
				// JSONとして不正なボディは変更せず通し、後段のデコードに委ねる
				r.Body = io.NopCloser(bytes.NewReader(raw))
				next.ServeHTTP(w, r)
				return
			}

			sanitized := sanitizer.SanitizeValue(decoded)

			clean, err := json.Marshal(sanitized)
			if err != nil {
				// 再エンコードできない構造は元のボディのまま通す
				r.Body = io.NopCloser(bytes.NewReader(raw))
				next.ServeHTTP(w, r)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(clean))
			r.ContentLength = int64(len(clean))

			next.ServeHTTP(w, r)
		})
	}
}

// isJSONRequest はContent-TypeがJSONであるかを返す。
func isJSONRequest(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/json")
}
