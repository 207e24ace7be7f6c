package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Ledger.Backend != "file" {
		t.Errorf("expected file ledger backend, got %q", cfg.Ledger.Backend)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotedesk.yml")
	data := "port: 9090\nledger:\n  backend: sqlite\nchat:\n  max_message_length: 250\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.Ledger.Backend)
	}
	if cfg.Chat.MaxMessageLength != 250 {
		t.Errorf("expected max_message_length 250, got %d", cfg.Chat.MaxMessageLength)
	}
	// Untouched fields keep their defaults.
	if cfg.Chat.MaxHistoryItems != 20 {
		t.Errorf("expected default max_history_items 20, got %d", cfg.Chat.MaxHistoryItems)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QUOTEDESK_PORT", "7070")
	t.Setenv("QUOTEDESK_LEDGER__BACKEND", "sqlite")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("expected port 7070 from env, got %d", cfg.Port)
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Errorf("expected sqlite backend from env, got %q", cfg.Ledger.Backend)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"bad backend", func(c *Config) { c.Ledger.Backend = "redis" }},
		{"bad provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"zero max bytes", func(c *Config) { c.Ledger.MaxBytes = 0 }},
		{"history larger than cap", func(c *Config) { c.Chat.HistorySentToLLM = 50 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yml")
	cfg := DefaultConfig()
	cfg.Port = 9999

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Port != 9999 {
		t.Errorf("expected port 9999 after round trip, got %d", loaded.Port)
	}
}
