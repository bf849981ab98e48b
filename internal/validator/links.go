package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/drewdunne/copilint/internal/source"
)

// checkLinks searches every Markdown file of the repository for deprecated
// URL forms. It reports one error per file and pattern. Paths in skip are
// not read again.
func (v *Validator) checkLinks(ctx context.Context, files []string, skip map[string]bool, read func(context.Context, string) ([]byte, error)) ([]Finding, error) {
	var findings []Finding
	for _, path := range files {
		if !strings.HasSuffix(strings.ToLower(path), ".md") || skip[path] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := read(ctx, path)
		if err != nil {
			findings = append(findings, Finding{
				Path:     path,
				Rule:     RuleRead,
				Severity: SeverityError,
				Message:  fmt.Sprintf("could not read file: %v", err),
			})
			continue
		}
		findings = append(findings, v.scanLinks(path, string(data))...)
	}
	return findings, nil
}

func (v *Validator) scanLinks(path, text string) []Finding {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var findings []Finding
	for _, pattern := range v.deprecatedURLs {
		first, total := 0, 0
		for i, line := range lines {
			if n := strings.Count(line, pattern); n > 0 {
				if first == 0 {
					first = i + 1
				}
				total += n
			}
		}
		if total == 0 {
			continue
		}
		findings = append(findings, Finding{
			Path:     path,
			Rule:     RuleDeprecatedURL,
			Severity: SeverityError,
			Message:  fmt.Sprintf("deprecated URL pattern %q (%d occurrence(s))", pattern, total),
			Line:     first,
		})
	}
	return findings
}

// skippedFindings turns the paths a tree walk could not enter into read
// errors, sorted by path.
func skippedFindings(partial *source.PartialError) []Finding {
	paths := make([]string, 0, len(partial.Failed))
	for p := range partial.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	findings := make([]Finding, 0, len(paths))
	for _, p := range paths {
		findings = append(findings, Finding{
			Path:     p,
			Rule:     RuleRead,
			Severity: SeverityError,
			Message:  fmt.Sprintf("could not read directory: %v", partial.Failed[p]),
		})
	}
	return findings
}
