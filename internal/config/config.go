package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	LogDir          string
	// Local development identity used when no identity provider is configured
	DevUserID   string
	DevUserName string
	// Object storage (S3-compatible)
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	StorageRegion    string
	AudioURLTTL      time.Duration
	// Redis (in-flight operation guards)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// AI tools
	AIProvider      string
	AnthropicAPIKey string
	AIModel         string
	// Virtual stage
	StageMaxDuration time.Duration
	StageIdleTimeout time.Duration
	// Live creation streams
	StreamKeepAlive time.Duration
	StreamRetry     time.Duration
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		LogDir:          getEnv("LOG_DIR", ""),
		DevUserID:       getEnv("DEV_USER_ID", "00000000-0000-0000-0000-000000000001"),
		DevUserName:     getEnv("DEV_USER_NAME", "Plume Dev"),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "creations"),
		StorageUseSSL:    getEnv("STORAGE_USE_SSL", "false") == "true",
		StorageRegion:    getEnv("STORAGE_REGION", "us-east-1"),
		AudioURLTTL:      getEnvDuration("AUDIO_URL_TTL", time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AIProvider:      getEnv("AI_PROVIDER", getDefaultAIProvider()),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", "claude-haiku-4-5-20251001"),

		StageMaxDuration: getEnvDuration("STAGE_MAX_DURATION", 300*time.Second),
		StageIdleTimeout: getEnvDuration("STAGE_IDLE_TIMEOUT", 15*time.Minute),

		StreamKeepAlive: getEnvDuration("STREAM_KEEPALIVE_INTERVAL", 10*time.Second),
		StreamRetry:     getEnvDuration("STREAM_RETRY_INTERVAL", 3*time.Second),
	}
}

// UsesMemoryBackends reports whether any store falls back to the in-process implementation.
func (c *Config) UsesMemoryBackends() bool {
	return c.SupabaseDBURL == "" || c.StorageEndpoint == "" || c.RedisAddr == ""
}

// getDefaultAIProvider picks the offline generator when no API key is configured
func getDefaultAIProvider() string {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return "anthropic"
	}
	return "lorem"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5m") or plain seconds ("300").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
