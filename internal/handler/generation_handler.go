package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/voacom/commercial-intelligence-system/internal/generation"
)

// GenerationServiceInterface は生成ハンドラーが必要とするサービスインターフェース。
type GenerationServiceInterface interface {
	// GenerateManual は投資マニュアル（ピッチデッキ）を生成する。
	GenerateManual(ctx context.Context, topic, industry, targetAudience string) (*generation.Deck, error)
}

// GenerationCollector は生成結果のメトリクス記録先。
type GenerationCollector interface {
	RecordGeneration(err error)
}

// GenerationHandler はコンテンツ生成のHTTPハンドラー。
type GenerationHandler struct {
	service GenerationServiceInterface
	metrics GenerationCollector
}

// NewGenerationHandler はGenerationHandlerを生成する。
func NewGenerationHandler(service GenerationServiceInterface, metrics GenerationCollector) *GenerationHandler {
	return &GenerationHandler{service: service, metrics: metrics}
}

// generateManualRequest はマニュアル生成リクエストのボディ。
type generateManualRequest struct {
	Topic          string `json:"topic"`
	TargetAudience string `json:"target_audience"`
	Industry       string `json:"industry"`
}

// GenerateManual はピッチデッキのスライド一式を生成する。
// POST /api/design/manual/generate
func (h *GenerationHandler) GenerateManual(w http.ResponseWriter, r *http.Request) {
	var req generateManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "failed to parse request body")
		return
	}
	if req.Topic == "" {
		writeBadRequest(w, "topic is required")
		return
	}
	if req.TargetAudience == "" {
		req.TargetAudience = "Potential Investors"
	}
	if req.Industry == "" {
		req.Industry = "General"
	}

	deck, err := h.service.GenerateManual(r.Context(), req.Topic, req.Industry, req.TargetAudience)
	if h.metrics != nil {
		h.metrics.RecordGeneration(err)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Handbook generated successfully",
		"data":    deck,
	})
}

// GeneratePoster はポスター生成のスタブ。
// POST /api/design/poster/generate
func (h *GenerationHandler) GeneratePoster(w http.ResponseWriter, r *http.Request) {
	theme := r.URL.Query().Get("theme")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "Generating poster for theme: " + theme,
		"image_url": "https://example.com/poster-preview.jpg",
	})
}

// GenerateVideo は動画生成のスタブ。タスクIDのみ発行する。
// POST /api/growth/video/generate
func (h *GenerationHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     "Video generation task started",
		"task_id":     "vid-" + uuid.NewString(),
		"eta_seconds": 120,
	})
}
