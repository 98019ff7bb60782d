package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "TABLE_PREFIX", "SUPABASE_URL", "STAGE_MAX_DURATION", "ANTHROPIC_API_KEY", "AI_PROVIDER"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Environment != "dev" || cfg.TablePrefix != "dev_" {
		t.Errorf("env=%q prefix=%q", cfg.Environment, cfg.TablePrefix)
	}
	if cfg.SupabaseJWKSURL != "" {
		t.Errorf("JWKS URL should be empty without SUPABASE_URL, got %q", cfg.SupabaseJWKSURL)
	}
	if cfg.StageMaxDuration != 300*time.Second {
		t.Errorf("stage max duration = %v", cfg.StageMaxDuration)
	}
	if cfg.AIProvider != "lorem" {
		t.Errorf("AI provider = %q, want lorem without API key", cfg.AIProvider)
	}
	if !cfg.UsesMemoryBackends() {
		t.Error("expected memory backends without store configuration")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("STAGE_MAX_DURATION", "90")
	t.Setenv("STAGE_IDLE_TIMEOUT", "2m")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	if cfg.TablePrefix != "prod_" {
		t.Errorf("prefix = %q", cfg.TablePrefix)
	}
	if cfg.SupabaseJWKSURL != "https://abc.supabase.co/auth/v1/.well-known/jwks.json" {
		t.Errorf("JWKS URL = %q", cfg.SupabaseJWKSURL)
	}
	if cfg.StageMaxDuration != 90*time.Second || cfg.StageIdleTimeout != 2*time.Minute {
		t.Errorf("durations = %v / %v", cfg.StageMaxDuration, cfg.StageIdleTimeout)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("redis db = %d", cfg.RedisDB)
	}
}

func TestSetupLogFile_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plume-2024-01-01T00-00-00.log", "plume-2024-01-02T00-00-00.log", "plume-2024-01-03T00-00-00.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := SetupLogFile(dir, 2)
	if err != nil {
		t.Fatalf("SetupLogFile: %v", err)
	}
	f.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "plume-*.log"))
	if len(files) != 2 {
		t.Fatalf("kept %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "plume-2024-01-03T00-00-00.log" {
		t.Errorf("oldest kept file = %s", files[0])
	}
}
