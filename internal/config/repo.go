package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// RepoConfigPath is where a repository keeps its own rule overrides.
const RepoConfigPath = ".github/copilint.yaml"

// RepoConfig represents repository-level configuration.
type RepoConfig struct {
	Rules RepoRulesConfig `yaml:"rules"`
}

// RepoRulesConfig mirrors RulesConfig with optional fields so that unset
// values can be told apart from explicit ones.
type RepoRulesConfig struct {
	Placeholders   []string            `yaml:"placeholders"`
	DeprecatedURLs []string            `yaml:"deprecated_urls"`
	UnknownKeys    string              `yaml:"unknown_keys"`
	FailOnWarnings *bool               `yaml:"fail_on_warnings"`
	ExtraRequired  map[string][]string `yaml:"extra_required"`
}

// FileReader reads files from a repository.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// LoadRepoConfig loads the repo config from .github/copilint.yaml.
// A repository without one gets an empty config.
func LoadRepoConfig(ctx context.Context, reader FileReader) (*RepoConfig, error) {
	data, err := reader.ReadFile(ctx, RepoConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &RepoConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading repo config: %w", err)
	}

	var cfg RepoConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing repo config: %w", err)
	}
	if err := (RulesConfig{UnknownKeys: cfg.Rules.UnknownKeys, ExtraRequired: cfg.Rules.ExtraRequired}).Validate(); err != nil {
		return nil, fmt.Errorf("repo config: %w", err)
	}

	return &cfg, nil
}
