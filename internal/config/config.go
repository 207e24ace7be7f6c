package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (QUOTEDESK_*). Nested keys use a double
// underscore: QUOTEDESK_LEDGER__BACKEND -> ledger.backend.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("QUOTEDESK_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "QUOTEDESK_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validLedgerBackends is the set of recognized ledger backend values.
var validLedgerBackends = map[string]bool{
	"file":   true,
	"sqlite": true,
}

// validLLMProviders is the set of recognized chat provider values.
var validLLMProviders = map[string]bool{
	"anthropic": true,
	"groq":      true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if !validLedgerBackends[c.Ledger.Backend] {
		return fmt.Errorf("invalid ledger backend %q: must be one of file, sqlite", c.Ledger.Backend)
	}
	if c.Ledger.MaxBytes <= 0 {
		return fmt.Errorf("ledger max_bytes must be positive")
	}

	if c.LLM.Provider != "" && !validLLMProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm provider %q: must be one of anthropic, groq", c.LLM.Provider)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm timeout_seconds must be positive")
	}

	if c.Chat.MaxMessageLength <= 0 {
		return fmt.Errorf("chat max_message_length must be positive")
	}
	if c.Chat.HistorySentToLLM > c.Chat.MaxHistoryItems {
		return fmt.Errorf("chat history_sent_to_llm cannot exceed max_history_items")
	}

	return nil
}
