package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:      8080,
		DataDir:   "data",
		RulesPath: "quote-rules.yml",
		Ledger: LedgerConfig{
			Backend:  "file",
			MaxBytes: 5 * 1024 * 1024,
		},
		LLM: LLMConfig{
			Provider:       "anthropic",
			Model:          "claude-haiku-4-5-20251001",
			MaxTokens:      2048,
			TimeoutSeconds: 30,
		},
		Chat: ChatConfig{
			MaxMessageLength:  500,
			MaxHistoryItems:   20,
			HistorySentToLLM:  10,
			MaxResponseTokens: 300,
			GlobalHourlyLimit: 200,
			FallbackContact:   "info@afjltd.co.uk",
		},
		AuditPath: "data/audit-log.jsonl",
	}
}
