package validator

import (
	"time"

	"github.com/drewdunne/copilint/internal/document"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifies the check that produced a finding.
type Rule string

const (
	RuleRead            Rule = "read"
	RuleFrontMatter     Rule = "front-matter"
	RuleFrontMatterYAML Rule = "front-matter-yaml"
	RuleRequiredField   Rule = "required-field"
	RuleUnknownKey      Rule = "unknown-key"
	RuleFilename        Rule = "filename"
	RuleCodeFence       Rule = "code-fence"
	RulePlaceholder     Rule = "placeholder"
	RuleDeprecatedURL   Rule = "deprecated-url"
)

// Finding is a single validation error or warning.
type Finding struct {
	Path     string   `json:"path"`
	Rule     Rule     `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// FileResult holds the findings for one checked file.
type FileResult struct {
	Path     string        `json:"path"`
	Category document.Kind `json:"category"`
	Findings []Finding     `json:"findings"`
}

// Errors returns the number of error findings.
func (f FileResult) Errors() int {
	return count(f.Findings, SeverityError)
}

// Report is the outcome of one validation run.
type Report struct {
	RunID      string       `json:"run_id"`
	Source     string       `json:"source"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileResult `json:"files"`
	// Links holds the repository-wide deprecated URL findings.
	Links []Finding `json:"links"`
	// FailOnWarnings makes warnings fail the run.
	FailOnWarnings bool `json:"fail_on_warnings"`
}

// Findings returns every finding in report order.
func (r *Report) Findings() []Finding {
	var all []Finding
	for _, f := range r.Files {
		all = append(all, f.Findings...)
	}
	return append(all, r.Links...)
}

// ErrorCount returns the aggregate error counter.
func (r *Report) ErrorCount() int {
	return count(r.Findings(), SeverityError)
}

// WarningCount returns the number of warnings.
func (r *Report) WarningCount() int {
	return count(r.Findings(), SeverityWarning)
}

// Passed reports whether the run succeeded.
func (r *Report) Passed() bool {
	if r.ErrorCount() > 0 {
		return false
	}
	return !r.FailOnWarnings || r.WarningCount() == 0
}

// FilesIn returns the results for one category.
func (r *Report) FilesIn(kind document.Kind) []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Category == kind {
			out = append(out, f)
		}
	}
	return out
}

func count(findings []Finding, sev Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
