package handler

import "net/http"

// DashboardHandler はCRM・ダッシュボードのデモ用スタブハンドラー。
// バックエンド実装が入るまでフロントエンドが使う固定データを返す。
type DashboardHandler struct{}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// ListCRMClients はCRMクライアント一覧の固定データを返す。
// GET /api/crm/clients
func (h *DashboardHandler) ListCRMClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "name": "Tech Corp", "status": "Potential", "last_contact": "2024-02-01"},
		{"id": 2, "name": "Finance Ltd", "status": "Signed", "last_contact": "2024-01-28"},
		{"id": 3, "name": "Retail Inc", "status": "Negotiating", "last_contact": "2024-02-03"},
	})
}

// GetStats はダッシュボード統計の固定データを返す。
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total_projects":  128,
		"active_clients":  45,
		"conversion_rate": "12.5%",
		"revenue":         "¥1,250,000",
	})
}
