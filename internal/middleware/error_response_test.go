package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voacom/commercial-intelligence-system/internal/model"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Unauthorized", model.NewUnauthorizedError(), http.StatusUnauthorized},
		{"InvalidCredentials", model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{"Forbidden", model.NewForbiddenError("modify"), http.StatusForbidden},
		{"NotFound", model.NewNotFoundError("project"), http.StatusNotFound},
		{"SchemaUnavailable", model.NewSchemaUnavailableError(nil), http.StatusInternalServerError},
		{"SchemaMismatch", model.NewSchemaMismatchError("projects", []string{"user"}), http.StatusInternalServerError},
		{"MissingRequiredColumn", model.NewMissingRequiredColumnError("projects", []string{"title"}), http.StatusInternalServerError},
		{"未知のエラー", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.err); got != tt.want {
				t.Errorf("StatusForError = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteError_APIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.NewSchemaMismatchError("projects", []string{"user", "title"}))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if body.Code != model.ErrCodeSchemaMismatch {
		t.Errorf("code = %q", body.Code)
	}
	if len(body.Fields) != 2 {
		t.Errorf("fields = %v, want 2件", body.Fields)
	}
	if body.Action == "" {
		t.Error("actionが空、対処方法を含むべき")
	}
}

// 生のエラーは詳細を漏らさず一般メッセージになることを検証
func TestWriteError_PlainError_Generic(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused at 10.0.0.5"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q", body.Code)
	}
	if body.Message != "an internal error occurred" {
		t.Errorf("message = %q, 内部詳細を含んではならない", body.Message)
	}
}
