package config

// Config holds all quotedesk settings.
type Config struct {
	Port            int          `yaml:"port" koanf:"port"`
	DataDir         string       `yaml:"data_dir" koanf:"data_dir"`
	RulesPath       string       `yaml:"rules_path" koanf:"rules_path"`
	AllowAllOrigins bool         `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Ledger          LedgerConfig `yaml:"ledger" koanf:"ledger"`
	LLM             LLMConfig    `yaml:"llm" koanf:"llm"`
	Chat            ChatConfig   `yaml:"chat" koanf:"chat"`
	Notify          NotifyConfig `yaml:"notify" koanf:"notify"`
	AuditPath       string       `yaml:"audit_path" koanf:"audit_path"`
}

// LedgerConfig selects and tunes the quote ledger backend.
type LedgerConfig struct {
	// Backend is "file" (JSONL stream, the default) or "sqlite".
	Backend  string `yaml:"backend" koanf:"backend"`
	MaxBytes int64  `yaml:"max_bytes" koanf:"max_bytes"`
}

// LLMConfig configures the chat assistant's language-model provider.
type LLMConfig struct {
	Provider       string `yaml:"provider" koanf:"provider"`
	Model          string `yaml:"model" koanf:"model"`
	MaxTokens      int    `yaml:"max_tokens" koanf:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ChatConfig bounds the public chat endpoint.
type ChatConfig struct {
	MaxMessageLength  int    `yaml:"max_message_length" koanf:"max_message_length"`
	MaxHistoryItems   int    `yaml:"max_history_items" koanf:"max_history_items"`
	HistorySentToLLM  int    `yaml:"history_sent_to_llm" koanf:"history_sent_to_llm"`
	MaxResponseTokens int    `yaml:"max_response_tokens" koanf:"max_response_tokens"`
	GlobalHourlyLimit int    `yaml:"global_hourly_limit" koanf:"global_hourly_limit"`
	FallbackContact   string `yaml:"fallback_contact" koanf:"fallback_contact"`
}

// NotifyConfig configures outbound quote-request notifications.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" koanf:"webhook_url"`
}
