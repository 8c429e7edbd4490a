package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/rentlify/internal/model"
)

func TestWriteErrorResponse_WritesStatusAndMessage(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewRouteNotFoundError())

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["message"] != "Route not found" {
		t.Errorf("message = %q, want %q", body["message"], "Route not found")
	}
}

func TestWriteErrorResponse_DoesNotLeakErrorCode(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewUnauthenticatedError())

	// エラーコードは内部用であり、レスポンスボディには含めないこと
	var body map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, exists := body["code"]; exists {
		t.Error("response should not contain internal error code")
	}
	if len(body) != 1 {
		t.Errorf("response should contain only 'message', got %d fields", len(body))
	}
}

func TestWriteError_APIError_UsesItsStatus(t *testing.T) {
	w := httptest.NewRecorder()

	err := fmt.Errorf("handler failed: %w", model.NewForbiddenError())
	WriteError(w, err)

	// ラップされたAPIErrorもerrors.Asで展開されること
	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestWriteError_UnknownError_Returns500WithGenericMessage(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, errors.New("pq: connection refused"))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	// 内部エラーの詳細がクライアントに漏れないこと
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["message"] != "An unexpected error occurred" {
		t.Errorf("message = %q, want generic message", body["message"])
	}
}
