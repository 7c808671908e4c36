package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newTestClient(serverURL string) *Client {
	var buf bytes.Buffer
	return NewClient(serverURL, "test-key", newTestLogger(&buf), 5*time.Second, 2*time.Second, nil)
}

func TestClient_Select_BuildsFilterAndOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/projects" {
			t.Errorf("path = %s, want /rest/v1/projects", r.URL.Path)
		}
		if got := r.URL.Query().Get("owner_id"); got != "eq.u1" {
			t.Errorf("owner_idフィルタ = %q, want eq.u1", got)
		}
		if got := r.URL.Query().Get("order"); got != "updated_at.desc" {
			t.Errorf("order = %q, want updated_at.desc", got)
		}
		if got := r.URL.Query().Get("select"); got != "*" {
			t.Errorf("select = %q, want *", got)
		}

		// 認証ヘッダーの検証
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("apikey = %q, want test-key", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "p1", "owner_id": "u1"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	rows, err := c.Select(context.Background(), "projects", "", Filters{"owner_id": "u1"}, &Order{Column: "updated_at", Descending: true})
	if err != nil {
		t.Fatalf("Select がエラーを返した: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("行数 = %d, want 1", len(rows))
	}
	if rows[0]["id"] != "p1" {
		t.Errorf("id = %v, want p1", rows[0]["id"])
	}
}

func TestClient_Select_ColumnsParameter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("select"); got != "owner_id" {
			t.Errorf("select = %q, want owner_id", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{"owner_id": "u1"}})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.Select(context.Background(), "projects", "owner_id", nil, nil); err != nil {
		t.Fatalf("Select がエラーを返した: %v", err)
	}
}

func TestClient_Select_PreservesNumericIDPrecision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id": 9007199254740993}]`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	rows, err := c.Select(context.Background(), "projects", "", nil, nil)
	if err != nil {
		t.Fatalf("Select がエラーを返した: %v", err)
	}

	n, ok := rows[0]["id"].(json.Number)
	if !ok {
		t.Fatalf("id の型 = %T, want json.Number", rows[0]["id"])
	}
	if n.String() != "9007199254740993" {
		t.Errorf("id = %s, 精度が失われている", n.String())
	}
}

func TestClient_Insert_SendsPreferHeaderAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer = %q, want return=representation", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Fatalf("ボディのデコードに失敗: %v", err)
		}
		if row["title"] != "Title" {
			t.Errorf("title = %v, want Title", row["title"])
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "p1", "title": "Title"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	rows, err := c.Insert(context.Background(), "projects", Row{"title": "Title"})
	if err != nil {
		t.Fatalf("Insert がエラーを返した: %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "p1" {
		t.Errorf("挿入結果 = %v", rows)
	}
}

func TestClient_Update_PatchesFilteredRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p1" {
			t.Errorf("idフィルタ = %q, want eq.p1", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": "p1", "title": "Updated"}})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	rows, err := c.Update(context.Background(), "projects", Filters{"id": "p1"}, Row{"title": "Updated"})
	if err != nil {
		t.Fatalf("Update がエラーを返した: %v", err)
	}
	if rows[0]["title"] != "Updated" {
		t.Errorf("title = %v, want Updated", rows[0]["title"])
	}
}

func TestClient_Delete_Succeeds(t *testing.T) {
	var gotMethod, gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotFilter = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if err := c.Delete(context.Background(), "projects", Filters{"id": "p1"}); err != nil {
		t.Fatalf("Delete がエラーを返した: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
	if gotFilter != "eq.p1" {
		t.Errorf("idフィルタ = %q, want eq.p1", gotFilter)
	}
}

func TestClient_ErrorStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Select(context.Background(), "projects", "", nil, nil)
	if err == nil {
		t.Fatal("エラーステータスでerrorを返すべき")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("エラー = %v, ステータスコードを含むべき", err)
	}
}

func TestClient_OpenAPI_FetchesRootDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/" {
			t.Errorf("path = %s, want /rest/v1/", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		io.WriteString(w, `{"definitions":{"projects":{"properties":{"id":{}}}}}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	body, err := c.OpenAPI(context.Background())
	if err != nil {
		t.Fatalf("OpenAPI がエラーを返した: %v", err)
	}
	if !strings.Contains(string(body), "definitions") {
		t.Errorf("body = %s", body)
	}
}

func TestClient_OpenAPI_Timeout_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.URL, "test-key", newTestLogger(&buf), 5*time.Second, 50*time.Millisecond, nil)

	if _, err := c.OpenAPI(context.Background()); err == nil {
		t.Fatal("タイムアウト時にエラーを返すべき")
	}
}

func TestClient_OpenAPI_ErrorStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.OpenAPI(context.Background()); err == nil {
		t.Fatal("503でエラーを返すべき")
	}
}
