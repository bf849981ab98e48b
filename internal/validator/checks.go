package validator

import (
	"fmt"
	"strings"

	"github.com/drewdunne/copilint/internal/document"
	"github.com/sahilm/fuzzy"
)

// checkDocument applies every per-file rule of cat to content. Checks are
// independent; each one appends its own findings.
func (v *Validator) checkDocument(cat document.Category, path string, content []byte) []Finding {
	doc := document.Parse(path, content)
	var findings []Finding
	add := func(rule Rule, sev Severity, line int, format string, args ...any) {
		findings = append(findings, Finding{
			Path:     path,
			Rule:     rule,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
			Line:     line,
		})
	}

	switch {
	case !doc.HasFrontMatter:
		add(RuleFrontMatter, SeverityError, 1, "missing front matter")
	default:
		if !doc.Terminated {
			add(RuleFrontMatter, SeverityError, 1, "front matter is not terminated")
		}
		if doc.YAMLError != nil {
			add(RuleFrontMatterYAML, SeverityWarning, 1, "front matter is not valid YAML: %v", doc.YAMLError)
		}
		for _, field := range cat.Required {
			if !doc.HasKey(field) {
				add(RuleRequiredField, SeverityError, 1, "missing '%s' field", field)
			}
		}
		if v.warnUnknownKeys {
			known := cat.KnownKeys()
			for _, key := range doc.Keys {
				if contains(known, key) {
					continue
				}
				if s := suggest(key, known); s != "" {
					add(RuleUnknownKey, SeverityWarning, 1, "unknown front matter key '%s' (did you mean '%s'?)", key, s)
				} else {
					add(RuleUnknownKey, SeverityWarning, 1, "unknown front matter key '%s'", key)
				}
			}
		}
	}

	if !cat.MatchesName(path) {
		add(RuleFilename, SeverityError, 0, "filename does not match %s", cat.Pattern.String())
	}

	if n := doc.FenceCount(); n%2 != 0 {
		add(RuleCodeFence, SeverityError, 0, "unmatched code fences (found %d)", n)
	}

	for _, token := range v.placeholders {
		if line := doc.FindInBody(token); line > 0 {
			add(RulePlaceholder, SeverityWarning, line, "unfilled template placeholder %s", token)
		}
	}

	return findings
}

// suggest returns the known key closest to key, or "" when nothing is close.
func suggest(key string, known []string) string {
	if m := fuzzy.Find(key, known); len(m) > 0 {
		return m[0].Str
	}
	// Keys that extend a known key, such as "descriptions".
	var best string
	for _, k := range known {
		if strings.HasPrefix(strings.ToLower(key), strings.ToLower(k)) && len(k) > len(best) {
			best = k
		}
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
