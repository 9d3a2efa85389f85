// Package config loads and persists the tool's configuration layers:
// the repo-level JSON config under .preflight/, the optional checked-in
// TOML profile, and the user credentials file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigDirName is the per-repo directory holding config, rules,
	// and history.
	ConfigDirName = ".preflight"
	// DefaultAPIKeyEnv is the environment variable consulted for the
	// analyzer key when the config does not name another.
	DefaultAPIKeyEnv = "PREFLIGHT_API_KEY"

	configFileName = "config.json"
)

// Config is the complete tool configuration.
type Config struct {
	Review  ReviewConfig  `json:"review" mapstructure:"review"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ReviewConfig drives the review pipeline.
type ReviewConfig struct {
	Context   ContextConfig  `json:"context" mapstructure:"context"`
	Analyzer  AnalyzerConfig `json:"analyzer" mapstructure:"analyzer"`
	Gate      GateConfig     `json:"gate" mapstructure:"gate"`
	RulesFile string         `json:"rulesFile" mapstructure:"rulesFile"`
	Fix       FixConfig      `json:"fix" mapstructure:"fix"`
}

// ContextConfig bounds the context expansion.
type ContextConfig struct {
	BaseLimit            int `json:"baseLimit" mapstructure:"baseLimit"`
	ImportExpansionLimit int `json:"importExpansionLimit" mapstructure:"importExpansionLimit"`
	MaxFileChars         int `json:"maxFileChars" mapstructure:"maxFileChars"`
}

// AnalyzerConfig configures the remote analyzer call.
type AnalyzerConfig struct {
	BaseURL        string `json:"baseUrl" mapstructure:"baseUrl"`
	Model          string `json:"model" mapstructure:"model"`
	APIKeyEnv      string `json:"apiKeyEnv" mapstructure:"apiKeyEnv"`
	TimeoutSeconds int    `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	MaxDiffChars   int    `json:"maxDiffChars" mapstructure:"maxDiffChars"`
}

// GateConfig sets the severity threshold that blocks a commit. FailOn
// is one of critical, warning, info, or off.
type GateConfig struct {
	FailOn string `json:"failOn" mapstructure:"failOn"`
}

// FixConfig configures the auto-fix engine.
type FixConfig struct {
	Backup bool `json:"backup" mapstructure:"backup"`
}

// HistoryConfig configures the run-summary store.
type HistoryConfig struct {
	Enabled       bool `json:"enabled" mapstructure:"enabled"`
	RetentionDays int  `json:"retentionDays" mapstructure:"retentionDays"`
}

// LoggingConfig configures diagnostic output.
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Review: ReviewConfig{
			Context: ContextConfig{
				BaseLimit:            10,
				ImportExpansionLimit: 20,
				MaxFileChars:         20000,
			},
			Analyzer: AnalyzerConfig{
				BaseURL:        "https://api.openai.com/v1",
				Model:          "gpt-4o-mini",
				APIKeyEnv:      DefaultAPIKeyEnv,
				TimeoutSeconds: 60,
				MaxDiffChars:   30000,
			},
			Gate:      GateConfig{FailOn: "critical"},
			RulesFile: ".preflight/rules.yaml",
			Fix:       FixConfig{Backup: true},
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// LoadConfig reads .preflight/config.json under repoRoot. A missing
// file yields the defaults; present keys override defaults field by
// field, so a partial config stays valid.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDirName))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to .preflight/config.json as indented
// JSON, creating the directory when needed.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFileName), data, 0644)
}

// ConfigPath returns the path of the repo config file.
func ConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigDirName, configFileName)
}

// Validate checks ranges and enums. It runs before any network or git
// work, so a broken config fails fast.
func (c *Config) Validate() error {
	if c.Review.Context.BaseLimit <= 0 {
		return &ConfigError{Field: "review.context.baseLimit", Message: "must be positive"}
	}
	if c.Review.Context.ImportExpansionLimit <= 0 {
		return &ConfigError{Field: "review.context.importExpansionLimit", Message: "must be positive"}
	}
	if c.Review.Context.MaxFileChars <= 0 {
		return &ConfigError{Field: "review.context.maxFileChars", Message: "must be positive"}
	}
	if strings.TrimSpace(c.Review.Analyzer.BaseURL) == "" {
		return &ConfigError{Field: "review.analyzer.baseUrl", Message: "must not be empty"}
	}
	if c.Review.Analyzer.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "review.analyzer.timeoutSeconds", Message: "must be positive"}
	}
	if c.Review.Analyzer.MaxDiffChars <= 0 {
		return &ConfigError{Field: "review.analyzer.maxDiffChars", Message: "must be positive"}
	}
	switch c.Review.Gate.FailOn {
	case "critical", "warning", "info", "off":
	default:
		return &ConfigError{Field: "review.gate.failOn", Message: "must be one of critical, warning, info, off"}
	}
	if c.History.RetentionDays < 0 {
		return &ConfigError{Field: "history.retentionDays", Message: "must not be negative"}
	}
	return nil
}

// ResolveAPIKey applies the key precedence: explicit flag value, then
// the configured environment variable, then the user credentials file.
// An empty result means no key is available anywhere.
func ResolveAPIKey(flagValue string, cfg *Config) string {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key
	}
	envName := cfg.Review.Analyzer.APIKeyEnv
	if envName == "" {
		envName = DefaultAPIKeyEnv
	}
	if key := strings.TrimSpace(os.Getenv(envName)); key != "" {
		return key
	}
	creds, err := LoadCredentials()
	if err != nil || creds == nil {
		return ""
	}
	return strings.TrimSpace(creds.APIKey)
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
