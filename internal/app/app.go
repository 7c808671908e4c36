package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voacom/commercial-intelligence-system/internal/auth"
	"github.com/voacom/commercial-intelligence-system/internal/config"
	"github.com/voacom/commercial-intelligence-system/internal/database"
	"github.com/voacom/commercial-intelligence-system/internal/generation"
	"github.com/voacom/commercial-intelligence-system/internal/handler"
	"github.com/voacom/commercial-intelligence-system/internal/logger"
	"github.com/voacom/commercial-intelligence-system/internal/metrics"
	"github.com/voacom/commercial-intelligence-system/internal/postgrest"
	"github.com/voacom/commercial-intelligence-system/internal/repository"
	"github.com/voacom/commercial-intelligence-system/internal/schema"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "info")

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルでロガーを再構成する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// データAPIクライアントと全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	log := slog.Default()

	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. データAPIクライアントとスキーマ層の初期化
	dataClient := postgrest.NewClient(
		cfg.SupabaseURL, cfg.SupabaseKey,
		log, cfg.DataStoreTimeout, cfg.SchemaFetchTimeout, collector,
	)
	introspector := schema.NewIntrospector(dataClient, log)
	mapper := schema.NewMapper(introspector)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgrestUserRepo(dataClient, mapper)
	projectRepo := repository.NewPostgrestProjectRepo(dataClient, mapper)

	// 4. 認証サービスの初期化
	tokenManager := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	authService := auth.NewService(userRepo, tokenManager, log)

	// 5. 生成サービスの初期化
	genClient := generation.NewClient(
		cfg.DashScopeBaseURL, cfg.DashScopeAPIKey, cfg.DashScopeModel,
		log, cfg.GenerationTimeout,
	)
	genService := generation.NewService(genClient, log)

	if cfg.DashScopeAPIKey == "" {
		slog.Warn("DASHSCOPE_API_KEY is not set; generation requests will fail upstream")
	}

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Authenticator:      authService,

		AuthService:       authService,
		ProjectHandler:    handler.NewProjectHandler(projectRepo),
		GenerationService: genService,

		SchemaStatus: introspector,
		Metrics:      collector,
		Gatherer:     registry,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
// サービング経路はデータAPI経由のため、DB直結はこのサブコマンドのみ。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// 接続確認を先に行い、到達不能ならマイグレーション前に失敗させる
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
