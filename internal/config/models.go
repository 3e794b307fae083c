package config

import "time"

// AIConfig represents the configuration for the AI provider selection
type AIConfig struct {
	Provider string
	Enabled  bool
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GmailConfig represents the configuration for the Gmail mailbox
type GmailConfig struct {
	CredentialsPath string
	User            string
}

// DriveConfig represents the configuration for the Drive file store
type DriveConfig struct {
	FolderID string
}

// DatabaseConfig represents the primary database configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// StorageConfig represents the attachment blob storage configuration
type StorageConfig struct {
	Path string
}

// ScannerConfig represents the mailbox scanner configuration
type ScannerConfig struct {
	WindowDays          int
	MaxMessages         int
	Pacing              time.Duration
	Interval            time.Duration
	ProcessAttachments  bool
	AutoFile            bool
	FilterSpam          bool
	FilterSolicitations bool
}

// SpamConfig represents the sender classification configuration
type SpamConfig struct {
	CacheTTL           time.Duration
	AutoBlockThreshold float64
}

// CacheConfig represents the sender cache configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// SMTPConfig represents the SMTP intake configuration
type SMTPConfig struct {
	Enabled       bool
	ListenAddress string
	Domain        string
}

// GetAI returns the AI provider configuration
func (c *Config) GetAI() AIConfig {
	return AIConfig{
		Provider: c.GetString("ai.provider"),
		Enabled:  c.GetBool("ai.enabled"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetGmail returns the Gmail mailbox configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		CredentialsPath: c.GetString("gmail.credentials_path"),
		User:            c.GetString("gmail.user"),
	}
}

// GetDrive returns the Drive configuration
func (c *Config) GetDrive() DriveConfig {
	return DriveConfig{
		FolderID: c.GetString("drive.folder_id"),
	}
}

// GetDatabase returns the primary database configuration
func (c *Config) GetDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver: c.GetString("database.driver"),
		DSN:    c.GetString("database.dsn"),
	}
}

// GetStorage returns the blob storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Path: c.GetString("storage.path"),
	}
}

// GetScanner returns the scanner configuration
func (c *Config) GetScanner() ScannerConfig {
	pacing, err := c.GetDuration("scanner.pacing")
	if err != nil {
		pacing = 500 * time.Millisecond
	}
	interval, err := c.GetDuration("scanner.interval")
	if err != nil {
		interval = 5 * time.Minute
	}
	return ScannerConfig{
		WindowDays:          c.GetInt("scanner.window_days"),
		MaxMessages:         c.GetInt("scanner.max_messages"),
		Pacing:              pacing,
		Interval:            interval,
		ProcessAttachments:  c.GetBool("scanner.process_attachments"),
		AutoFile:            c.GetBool("scanner.auto_file"),
		FilterSpam:          c.GetBool("scanner.filter_spam"),
		FilterSolicitations: c.GetBool("scanner.filter_solicitations"),
	}
}

// GetSpam returns the sender classification configuration
func (c *Config) GetSpam() SpamConfig {
	ttl, err := c.GetDuration("spam.cache_ttl")
	if err != nil {
		ttl = 24 * time.Hour
	}
	return SpamConfig{
		CacheTTL:           ttl,
		AutoBlockThreshold: c.GetFloat64("spam.auto_block_threshold"),
	}
}

// GetCache returns the sender cache configuration
func (c *Config) GetCache() CacheConfig {
	freq, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		freq = time.Hour
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		CleanupFrequency: freq,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}
}

// GetSMTP returns the SMTP intake configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:       c.GetBool("smtp.enabled"),
		ListenAddress: c.GetString("smtp.listen_address"),
		Domain:        c.GetString("smtp.domain"),
	}
}
