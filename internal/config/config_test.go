package config

import (
	"testing"
	"time"

	"optimind/internal/tester"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("FORMULATE_MAX_ATTEMPTS", "")
	t.Setenv("ARCHIVE_MINIO_ENDPOINT", "")

	cfg, err := Load()
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Env, "local")
	tester.Eq(t, cfg.MaxAttempts, 3)
	tester.Eq(t, cfg.ExemplarK, 3)
	tester.Eq(t, cfg.RateRPS, 2.0)
	tester.Eq(t, cfg.SolveTimeout, 5*time.Minute)
	tester.False(t, cfg.Archive.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("FORMULATE_MAX_ATTEMPTS", "7")
	t.Setenv("LLM_RATE_RPS", "0.5")
	t.Setenv("LLM_ATTEMPT_TIMEOUT", "45s")
	t.Setenv("ARCHIVE_S3_ENDPOINT", "s3.example.com")
	t.Setenv("ARCHIVE_S3_BUCKET", "runs")
	t.Setenv("ARCHIVE_S3_USE_SSL", "true")

	cfg, err := Load()
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Env, "prod")
	tester.Eq(t, cfg.MaxAttempts, 7)
	tester.Eq(t, cfg.RateRPS, 0.5)
	tester.Eq(t, cfg.AttemptTimeout, 45*time.Second)
	tester.True(t, cfg.Archive.Enabled)
	tester.Eq(t, cfg.Archive.Bucket, "runs")
	tester.True(t, cfg.Archive.UseSSL)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("FORMULATE_MAX_ATTEMPTS", "many")
	t.Setenv("LLM_RATE_RPS", "fast")
	t.Setenv("SOLVE_TIMEOUT", "soon")

	cfg, err := Load()
	tester.NoErr(t, err)
	tester.Eq(t, cfg.MaxAttempts, 3)
	tester.Eq(t, cfg.RateRPS, 2.0)
	tester.Eq(t, cfg.SolveTimeout, 5*time.Minute)
}

func TestLoad_LocalArchiveUsesMinioEndpoint(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("ARCHIVE_MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ROOT_USER", "root")
	t.Setenv("MINIO_ROOT_PASSWORD", "secret")

	cfg, err := Load()
	tester.NoErr(t, err)
	tester.True(t, cfg.Archive.Enabled)
	tester.Eq(t, cfg.Archive.Endpoint, "minio:9000")
	tester.Eq(t, cfg.Archive.AccessKey, "root")
	tester.False(t, cfg.Archive.UseSSL, "local minio speaks plain http")
}
