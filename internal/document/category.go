package document

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Kind identifies one of the document categories.
type Kind string

const (
	KindInstruction Kind = "instruction"
	KindPrompt      Kind = "prompt"
	KindChatmode    Kind = "chatmode"
)

// Category holds the rules applied to every file of one kind.
type Category struct {
	Kind     Kind
	Label    string
	Dir      string
	Suffix   string
	Required []string
	Optional []string
	Pattern  *regexp.Regexp
}

var categories = []Category{
	{
		Kind:     KindInstruction,
		Label:    "Instruction files",
		Dir:      ".github/instructions",
		Suffix:   ".instructions.md",
		Required: []string{"applyTo", "description"},
		Optional: []string{"name"},
		Pattern:  regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*\.instructions\.md$`),
	},
	{
		Kind:     KindPrompt,
		Label:    "Prompt files",
		Dir:      ".github/prompts",
		Suffix:   ".prompt.md",
		Required: []string{"mode", "description", "tools"},
		Optional: []string{"model", "name", "argument-hint", "agent"},
		Pattern:  regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*\.prompt\.md$`),
	},
	{
		Kind:     KindChatmode,
		Label:    "Chat mode files",
		Dir:      ".github/chatmodes",
		Suffix:   ".chatmode.md",
		Required: []string{"description", "tools"},
		Optional: []string{"model", "name"},
		Pattern:  regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*\.chatmode\.md$`),
	},
}

// Categories returns the categories in validation order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup returns the category for the given kind.
func Lookup(kind Kind) (Category, bool) {
	for _, c := range categories {
		if c.Kind == kind {
			return c, true
		}
	}
	return Category{}, false
}

// ParseKind converts a config key such as "prompt" or "prompts" to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if _, ok := Lookup(k); !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return k, nil
}

// KnownKeys returns the required and optional front matter keys.
func (c Category) KnownKeys() []string {
	keys := make([]string, 0, len(c.Required)+len(c.Optional))
	keys = append(keys, c.Required...)
	keys = append(keys, c.Optional...)
	return keys
}

// MatchesName reports whether the basename of p follows the naming convention.
func (c Category) MatchesName(p string) bool {
	return c.Pattern.MatchString(path.Base(p))
}

// WithRequired returns a copy of c that also requires the given keys.
func (c Category) WithRequired(extra ...string) Category {
	if len(extra) == 0 {
		return c
	}
	seen := make(map[string]bool, len(c.Required))
	required := make([]string, 0, len(c.Required)+len(extra))
	for _, k := range append(append([]string{}, c.Required...), extra...) {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		required = append(required, k)
	}
	c.Required = required
	return c
}
