// Package config resolves runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	// Formulation loop.
	ExemplarK   int
	MaxAttempts int
	CacheSize   int
	CacheTTL    time.Duration

	// Reasoning-backend middleware.
	RateRPS        float64
	RateBurst      int
	RateMaxWait    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	AttemptTimeout time.Duration

	// Solving.
	SolveTimeout time.Duration

	CorpusPath string
	Archive    ArchiveConfig
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Env:            env,
		ExemplarK:      intEnv("FORMULATE_EXEMPLARS", 3),
		MaxAttempts:    intEnv("FORMULATE_MAX_ATTEMPTS", 3),
		CacheSize:      intEnv("FORMULATE_CACHE_SIZE", 256),
		CacheTTL:       durationEnv("FORMULATE_CACHE_TTL", time.Hour),
		RateRPS:        floatEnv("LLM_RATE_RPS", 2),
		RateBurst:      intEnv("LLM_RATE_BURST", 4),
		RateMaxWait:    durationEnv("LLM_RATE_MAX_WAIT", 30*time.Second),
		RetryAttempts:  intEnv("LLM_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: durationEnv("LLM_RETRY_BASE_DELAY", time.Second),
		AttemptTimeout: durationEnv("LLM_ATTEMPT_TIMEOUT", 90*time.Second),
		SolveTimeout:   durationEnv("SOLVE_TIMEOUT", 5*time.Minute),
		CorpusPath:     firstNonEmpty(os.Getenv("KNOWLEDGE_CORPUS_PATH"), "knowledge/corpus.json"),
		Archive:        loadArchiveConfig(env),
	}, nil
}

func loadArchiveConfig(env string) ArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		AccessKey: firstNonEmpty(os.Getenv("ARCHIVE_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(os.Getenv("ARCHIVE_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(os.Getenv("ARCHIVE_S3_BUCKET"), "optimind-runs"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(env, "local") {
		return strings.TrimSpace(os.Getenv("ARCHIVE_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func floatEnv(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
