package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voacom/commercial-intelligence-system/internal/middleware"
	"github.com/voacom/commercial-intelligence-system/internal/model"
	"github.com/voacom/commercial-intelligence-system/internal/repository"
)

// ProjectHandler はデザインプロジェクトのHTTPハンドラー。
type ProjectHandler struct {
	projects repository.ProjectRepository
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(projects repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// projectResponse はプロジェクトのAPIレスポンス。
type projectResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Content   map[string]any `json:"content"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

func newProjectResponse(p model.Project) projectResponse {
	content := p.Content
	if content == nil {
		content = map[string]any{}
	}
	resp := projectResponse{
		ID:      p.ID,
		UserID:  p.UserID,
		Type:    p.Type,
		Title:   p.Title,
		Content: content,
	}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt
		resp.CreatedAt = &t
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

// createProjectRequest はプロジェクト作成リクエストのボディ。
type createProjectRequest struct {
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Content map[string]any `json:"content"`
}

// updateProjectRequest はプロジェクト更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateProjectRequest struct {
	Title   *string        `json:"title"`
	Content map[string]any `json:"content"`
}

// ListProjects は認証済みユーザーのプロジェクト一覧を返す。
// GET /api/design/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	projects, err := h.projects.List(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, newProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateProject はプロジェクトを作成する。
// POST /api/design/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "failed to parse request body")
		return
	}
	if req.Type == "" || req.Title == "" {
		writeBadRequest(w, "type and title are required")
		return
	}

	created, err := h.projects.Create(r.Context(), &model.Project{
		UserID:  user.ID,
		Type:    req.Type,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProjectResponse(*created))
}

// UpdateProject はプロジェクトを部分更新する。
// PUT /api/design/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	projectID := chi.URLParam(r, "id")

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "failed to parse request body")
		return
	}

	updated, err := h.projects.Update(r.Context(), user.ID, projectID, model.ProjectPatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProjectResponse(*updated))
}

// DeleteProject はプロジェクトを削除する。
// DELETE /api/design/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	projectID := chi.URLParam(r, "id")

	if err := h.projects.Delete(r.Context(), user.ID, projectID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Project deleted",
	})
}
