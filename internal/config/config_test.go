package config

import (
	"log/slog"
	"testing"
	"time"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("harborlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Warehouse.Path != "data/company.duckdb" {
		t.Fatalf("Warehouse.Path = %q", cfg.Warehouse.Path)
	}
	if cfg.AI.TopK != 5 {
		t.Fatalf("AI.TopK = %d", cfg.AI.TopK)
	}
	if cfg.AI.PromptPath != "configs/sql_prompt.txt" {
		t.Fatalf("AI.PromptPath = %q", cfg.AI.PromptPath)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.History.DSN != "" {
		t.Fatalf("History.DSN = %q, want empty", cfg.History.DSN)
	}
}

func TestLoadProdProfileTightensDefaults(t *testing.T) {
	cfg, err := Load("harborlens-api", mapLookup(map[string]string{
		"HARBORLENS_PROFILE": "prod",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	cfg, err := Load("harborlens-api", mapLookup(map[string]string{
		"HARBORLENS_HTTP_ADDR":                  ":9090",
		"HARBORLENS_WAREHOUSE_PATH":             "/tmp/wh.duckdb",
		"HARBORLENS_WAREHOUSE_SCHEMA_CACHE_TTL": "10m",
		"HARBORLENS_AI_MODEL":                   "gpt-4o",
		"HARBORLENS_AI_TOP_K":                   "8",
		"HARBORLENS_AI_TIMEOUT":                 "45s",
		"HARBORLENS_HISTORY_DSN":                "postgres://h:h@localhost:5432/history",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9090" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Warehouse.Path != "/tmp/wh.duckdb" {
		t.Fatalf("Warehouse.Path = %q", cfg.Warehouse.Path)
	}
	if cfg.Warehouse.SchemaCacheTTL != 10*time.Minute {
		t.Fatalf("SchemaCacheTTL = %v", cfg.Warehouse.SchemaCacheTTL)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.TopK != 8 {
		t.Fatalf("AI.TopK = %d", cfg.AI.TopK)
	}
	if cfg.AI.Timeout != 45*time.Second {
		t.Fatalf("AI.Timeout = %v", cfg.AI.Timeout)
	}
	if cfg.History.DSN == "" {
		t.Fatal("History.DSN should be set")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad profile":  {"HARBORLENS_PROFILE": "staging"},
		"bad duration": {"HARBORLENS_AI_TIMEOUT": "soon"},
		"bad int":      {"HARBORLENS_AI_TOP_K": "five"},
		"zero top_k":   {"HARBORLENS_AI_TOP_K": "0"},
		"bad level":    {"HARBORLENS_LOG_LEVEL": "loud"},
		"empty path":   {"HARBORLENS_WAREHOUSE_PATH": ""},
	}
	for name, env := range cases {
		if _, err := Load("harborlens-api", mapLookup(env)); err == nil {
			t.Fatalf("%s: Load() expected error", name)
		}
	}
}
