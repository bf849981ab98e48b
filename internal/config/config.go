package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/drewdunne/copilint/internal/document"
	"gopkg.in/yaml.v3"
)

// Config represents the copilint configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Events    EventsConfig    `yaml:"events"`
	Rules     RulesConfig     `yaml:"rules"`
	Report    ReportConfig    `yaml:"report"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MaxConcurrent bounds simultaneous webhook validations; QueueSize
	// bounds those waiting. A full queue answers webhooks with 503.
	MaxConcurrent int `yaml:"max_concurrent"`
	QueueSize     int `yaml:"queue_size"`
}

// LoggingConfig holds logging and report archive settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// ProvidersConfig holds git provider configurations.
type ProvidersConfig struct {
	GitHub GitHubConfig `yaml:"github"`
	GitLab GitLabConfig `yaml:"gitlab"`
}

// GitHubConfig holds GitHub-specific settings.
type GitHubConfig struct {
	Token         string `yaml:"token"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
}

// GitLabConfig holds GitLab-specific settings.
type GitLabConfig struct {
	Token         string `yaml:"token"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
}

// EventsConfig controls which webhook events trigger a validation.
type EventsConfig struct {
	Push            bool `yaml:"push"`
	MROpened        bool `yaml:"mr_opened"`
	MRUpdated       bool `yaml:"mr_updated"`
	Mention         bool `yaml:"mention"`
	DebounceSeconds int  `yaml:"debounce_seconds"`
}

// UnknownKeys values.
const (
	UnknownKeysWarn = "warn"
	UnknownKeysOff  = "off"
)

// RulesConfig tunes the validation checks.
type RulesConfig struct {
	// Workers bounds concurrent file checks. Zero means GOMAXPROCS.
	Workers        int                 `yaml:"workers"`
	Placeholders   []string            `yaml:"placeholders"`
	DeprecatedURLs []string            `yaml:"deprecated_urls"`
	UnknownKeys    string              `yaml:"unknown_keys"`
	FailOnWarnings bool                `yaml:"fail_on_warnings"`
	ExtraRequired  map[string][]string `yaml:"extra_required"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	Format        string `yaml:"format"`
	StatusContext string `yaml:"status_context"`
}

// DefaultPlaceholders are template tokens that should have been filled in.
var DefaultPlaceholders = []string{
	"{Language}",
	"{Version}",
	"{Framework}",
	"{ProjectName}",
	"{Description}",
	"{Name}",
}

// DefaultDeprecatedURLs are link forms that break once files are copied
// into another repository.
var DefaultDeprecatedURLs = []string{
	"blob/main",
	"](../",
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          7000,
			MaxConcurrent: 4,
			QueueSize:     100,
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "console",
			Dir:           "/var/log/copilint",
			RetentionDays: 30,
		},
		Events: EventsConfig{
			Push:            true,
			MROpened:        true,
			MRUpdated:       true,
			Mention:         true,
			DebounceSeconds: 10,
		},
		Rules: DefaultRules(),
		Report: ReportConfig{
			Format:        "text",
			StatusContext: "copilint",
		},
	}
}

// DefaultRules returns the built-in rule settings.
func DefaultRules() RulesConfig {
	return RulesConfig{
		Placeholders:   append([]string{}, DefaultPlaceholders...),
		DeprecatedURLs: append([]string{}, DefaultDeprecatedURLs...),
		UnknownKeys:    UnknownKeysWarn,
	}
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Parse decodes config data over the defaults after substituting
// environment variables.
func Parse(data []byte) (*Config, error) {
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks rule settings that YAML decoding cannot.
func (r RulesConfig) Validate() error {
	switch r.UnknownKeys {
	case "", UnknownKeysWarn, UnknownKeysOff:
	default:
		return fmt.Errorf("rules.unknown_keys: want %q or %q, got %q", UnknownKeysWarn, UnknownKeysOff, r.UnknownKeys)
	}
	if r.Workers < 0 {
		return fmt.Errorf("rules.workers: must not be negative, got %d", r.Workers)
	}
	for name := range r.ExtraRequired {
		if _, err := document.ParseKind(name); err != nil {
			return fmt.Errorf("rules.extra_required: %w", err)
		}
	}
	return nil
}
