package registry

import (
	"fmt"
	"sort"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/provider"
	"github.com/drewdunne/copilint/internal/provider/github"
	"github.com/drewdunne/copilint/internal/provider/gitlab"
)

// Registry manages provider instances.
type Registry struct {
	cfg       config.ProvidersConfig
	providers map[string]provider.Provider
}

// New creates a new provider registry from config. Only providers with a
// token are registered.
func New(cfg *config.Config) *Registry {
	r := &Registry{
		cfg:       cfg.Providers,
		providers: make(map[string]provider.Provider),
	}

	if cfg.Providers.GitHub.Token != "" {
		r.providers["github"] = newGitHub(cfg.Providers.GitHub)
	}

	if cfg.Providers.GitLab.Token != "" {
		r.providers["gitlab"] = newGitLab(cfg.Providers.GitLab)
	}

	return r
}

func newGitHub(c config.GitHubConfig) provider.Provider {
	var opts []github.Option
	if c.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(c.BaseURL))
	}
	return github.New(c.Token, opts...)
}

func newGitLab(c config.GitLabConfig) provider.Provider {
	var opts []gitlab.Option
	if c.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(c.BaseURL))
	}
	return gitlab.New(c.Token, opts...)
}

// Register adds or replaces a provider under its own name.
func (r *Registry) Register(p provider.Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider for the given name, or nil if not configured.
func (r *Registry) Get(name string) provider.Provider {
	return r.providers[name]
}

// Resolve returns the configured provider for name, falling back to an
// unauthenticated client. Public repositories can be read without a token.
func (r *Registry) Resolve(name string) (provider.Provider, error) {
	if p := r.providers[name]; p != nil {
		return p, nil
	}
	switch name {
	case "github":
		return newGitHub(r.cfg.GitHub), nil
	case "gitlab":
		return newGitLab(r.cfg.GitLab), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// List returns all configured provider names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
