// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Data API (PostgREST互換)
	SupabaseURL string
	SupabaseKey string

	// Token
	TokenSecret string
	TokenTTL    time.Duration

	// LLM Provider
	DashScopeAPIKey  string
	DashScopeBaseURL string
	DashScopeModel   string

	// Timeouts
	SchemaFetchTimeout time.Duration
	DataStoreTimeout   time.Duration
	GenerationTimeout  time.Duration

	// Database (migrateサブコマンド専用。サービング経路はSQLに触れない)
	DatabaseURL string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigins []string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はまとめてエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	if cfg.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}

	cfg.SupabaseKey = os.Getenv("SUPABASE_KEY")
	if cfg.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_KEY")
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 30*time.Minute)
	cfg.DashScopeAPIKey = os.Getenv("DASHSCOPE_API_KEY")
	cfg.DashScopeBaseURL = getEnvString("DASHSCOPE_BASE_URL", "https://dashscope.aliyuncs.com")
	cfg.DashScopeModel = getEnvString("DASHSCOPE_MODEL", "qwen-plus")
	cfg.SchemaFetchTimeout = getEnvDuration("SCHEMA_FETCH_TIMEOUT", 10*time.Second)
	cfg.DataStoreTimeout = getEnvDuration("DATASTORE_TIMEOUT", 10*time.Second)
	cfg.GenerationTimeout = getEnvDuration("GENERATION_TIMEOUT", 60*time.Second)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:5173",
		"http://localhost:4173",
	})
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数をスライスとして読み込む。
// 空要素は除去する。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
