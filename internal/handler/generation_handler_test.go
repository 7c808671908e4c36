package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voacom/commercial-intelligence-system/internal/generation"
)

type fakeGenerationService struct {
	deck *generation.Deck
	err  error

	gotTopic    string
	gotIndustry string
	gotAudience string
}

func (f *fakeGenerationService) GenerateManual(ctx context.Context, topic, industry, targetAudience string) (*generation.Deck, error) {
	f.gotTopic = topic
	f.gotIndustry = industry
	f.gotAudience = targetAudience
	if f.err != nil {
		return nil, f.err
	}
	return f.deck, nil
}

type fakeGenerationCollector struct {
	calls  int
	errors int
}

func (f *fakeGenerationCollector) RecordGeneration(err error) {
	f.calls++
	if err != nil {
		f.errors++
	}
}

func TestGenerationHandler_GenerateManual(t *testing.T) {
	svc := &fakeGenerationService{deck: &generation.Deck{Slides: []generation.Slide{
		{Title: "标题页", Content: "概要"},
	}}}
	collector := &fakeGenerationCollector{}
	h := NewGenerationHandler(svc, collector)

	req := httptest.NewRequest(http.MethodPost, "/api/design/manual/generate",
		strings.NewReader(`{"topic":"AI物流","industry":"物流","target_audience":"机构投资者"}`))
	rec := httptest.NewRecorder()
	h.GenerateManual(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if svc.gotTopic != "AI物流" || svc.gotIndustry != "物流" || svc.gotAudience != "机构投资者" {
		t.Errorf("引数 = %q/%q/%q", svc.gotTopic, svc.gotIndustry, svc.gotAudience)
	}
	if collector.calls != 1 || collector.errors != 0 {
		t.Errorf("メトリクス記録 = %d回/%dエラー", collector.calls, collector.errors)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if body["status"] != "success" {
		t.Errorf("status = %v", body["status"])
	}
	if body["message"] != "Handbook generated successfully" {
		t.Errorf("message = %v", body["message"])
	}
	data, _ := body["data"].(map[string]any)
	if slides, _ := data["slides"].([]any); len(slides) != 1 {
		t.Errorf("data = %v", data)
	}
}

func TestGenerationHandler_GenerateManual_Defaults(t *testing.T) {
	svc := &fakeGenerationService{deck: &generation.Deck{}}
	h := NewGenerationHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/design/manual/generate",
		strings.NewReader(`{"topic":"AI物流"}`))
	rec := httptest.NewRecorder()
	h.GenerateManual(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotAudience != "Potential Investors" {
		t.Errorf("target_audience = %q, デフォルトが適用されるべき", svc.gotAudience)
	}
	if svc.gotIndustry != "General" {
		t.Errorf("industry = %q, デフォルトが適用されるべき", svc.gotIndustry)
	}
}

func TestGenerationHandler_GenerateManual_MissingTopic_400(t *testing.T) {
	h := NewGenerationHandler(&fakeGenerationService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/design/manual/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.GenerateManual(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGenerationHandler_GenerateManual_BackendFailure_500(t *testing.T) {
	svc := &fakeGenerationService{err: errors.New("AI generation failed: quota")}
	collector := &fakeGenerationCollector{}
	h := NewGenerationHandler(svc, collector)

	req := httptest.NewRequest(http.MethodPost, "/api/design/manual/generate",
		strings.NewReader(`{"topic":"AI物流"}`))
	rec := httptest.NewRecorder()
	h.GenerateManual(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if collector.errors != 1 {
		t.Errorf("エラー記録 = %d, want 1", collector.errors)
	}
}

func TestGenerationHandler_Stubs(t *testing.T) {
	h := NewGenerationHandler(&fakeGenerationService{}, nil)

	rec := httptest.NewRecorder()
	h.GeneratePoster(rec, httptest.NewRequest(http.MethodPost, "/api/design/poster/generate?theme=launch", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("poster status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "launch") {
		t.Errorf("poster body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.GenerateVideo(rec, httptest.NewRequest(http.MethodPost, "/api/growth/video/generate", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("video status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	taskID, _ := body["task_id"].(string)
	if !strings.HasPrefix(taskID, "vid-") || len(taskID) < 10 {
		t.Errorf("task_id = %q", taskID)
	}
}
