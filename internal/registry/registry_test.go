package registry

import (
	"testing"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/provider"
)

func TestRegistry_Get(t *testing.T) {
	cfg := &config.Config{
		Providers: config.ProvidersConfig{
			GitHub: config.GitHubConfig{Token: "gh-token"},
			GitLab: config.GitLabConfig{Token: "gl-token", BaseURL: "https://gitlab.example.com"},
		},
	}

	reg := New(cfg)

	gh := reg.Get("github")
	if gh == nil {
		t.Fatal("Get(github) returned nil")
	}
	if gh.Name() != "github" {
		t.Errorf("github provider name = %q, want %q", gh.Name(), "github")
	}

	gl := reg.Get("gitlab")
	if gl == nil {
		t.Fatal("Get(gitlab) returned nil")
	}
	if gl.Name() != "gitlab" {
		t.Errorf("gitlab provider name = %q, want %q", gl.Name(), "gitlab")
	}

	unknown := reg.Get("unknown")
	if unknown != nil {
		t.Error("Get(unknown) should return nil")
	}
}

func TestRegistry_List(t *testing.T) {
	cfg := &config.Config{
		Providers: config.ProvidersConfig{
			GitHub: config.GitHubConfig{Token: "gh-token"},
		},
	}

	reg := New(cfg)
	names := reg.List()

	if len(names) != 1 {
		t.Fatalf("List() returned %d providers, want 1", len(names))
	}
	if names[0] != "github" {
		t.Errorf("List()[0] = %q, want %q", names[0], "github")
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := New(&config.Config{})

	if reg.Get("github") != nil {
		t.Fatal("Get(github) should be nil without a token")
	}

	for _, name := range []string{"github", "gitlab"} {
		p, err := reg.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Resolve(%q).Name() = %q", name, p.Name())
		}
	}

	if _, err := reg.Resolve("bitbucket"); err == nil {
		t.Error("Resolve(bitbucket) expected error")
	}
}

// stubProvider satisfies provider.Provider; only Name is called.
type stubProvider struct {
	provider.Provider
	name string
}

func (s *stubProvider) Name() string { return s.name }

func TestRegistry_Register(t *testing.T) {
	reg := New(&config.Config{})
	reg.Register(&stubProvider{name: "github"})

	if _, ok := reg.Get("github").(*stubProvider); !ok {
		t.Errorf("Get(github) = %T, want the registered provider", reg.Get("github"))
	}
	p, err := reg.Resolve("github")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*stubProvider); !ok {
		t.Errorf("Resolve(github) = %T, want the registered provider", p)
	}
}
