package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voacom/commercial-intelligence-system/internal/metrics"
	"github.com/voacom/commercial-intelligence-system/internal/middleware"
)

// SchemaStatus はヘルスチェックが参照するスキーマキャッシュの状態。
// schema.Introspectorが満たす。
type SchemaStatus interface {
	Cached() bool
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	Authenticator      middleware.Authenticator

	AuthService       AuthServiceInterface
	ProjectHandler    *ProjectHandler
	GenerationService GenerationServiceInterface

	SchemaStatus SchemaStatus
	Metrics      *metrics.Collector
	Gatherer     prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging →（認証ルートのみ）Auth
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	var statusCollector middleware.StatusCollector
	var genCollector GenerationCollector
	if deps.Metrics != nil {
		statusCollector = deps.Metrics
		genCollector = deps.Metrics
	}

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, statusCollector))

	authHandler := NewAuthHandler(deps.AuthService)
	genHandler := NewGenerationHandler(deps.GenerationService, genCollector)
	dashHandler := NewDashboardHandler()

	// --- 認証不要のルート ---

	r.Post("/token", authHandler.Token)
	r.Post("/api/login", authHandler.Login)

	r.Post("/api/design/manual/generate", genHandler.GenerateManual)
	r.Post("/api/design/poster/generate", genHandler.GeneratePoster)
	r.Post("/api/growth/video/generate", genHandler.GenerateVideo)

	r.Get("/api/crm/clients", dashHandler.ListCRMClients)
	r.Get("/api/dashboard/stats", dashHandler.GetStats)

	r.Get("/health", healthHandler(deps.SchemaStatus))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))

		r.Get("/users/me", authHandler.Me)

		r.Route("/api/design/projects", func(r chi.Router) {
			r.Get("/", deps.ProjectHandler.ListProjects)
			r.Post("/", deps.ProjectHandler.CreateProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", deps.ProjectHandler.UpdateProject)
				r.Delete("/", deps.ProjectHandler.DeleteProject)
			})
		})
	})

	return r
}

// healthHandler はヘルスチェックのHTTPハンドラーを返す。
// スキーマキャッシュの有無を含めるが、キャッシュ未取得でもokを返す。
// 起動直後の最初のリクエストまでキャッシュは空であり、異常ではない。
func healthHandler(status SchemaStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if status != nil {
			body["schema_cached"] = status.Cached()
		}
		writeJSON(w, http.StatusOK, body)
	}
}
