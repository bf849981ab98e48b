// Package report renders validation reports for terminals, CI logs and
// merge request comments.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/drewdunne/copilint/internal/validator"
)

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatRich     Format = "rich"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown, FormatRich}

// ParseFormat converts a flag or config value into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (want text, json, markdown or rich)", s)
}

// Render writes rep to w in the given format.
func Render(w io.Writer, f Format, rep *validator.Report) error {
	switch f {
	case FormatText, "":
		return Text(w, rep)
	case FormatJSON:
		return JSON(w, rep)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep))
		return err
	case FormatRich:
		return Rich(w, rep, "")
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// Summary is the one-line outcome shown at the end of every report.
func Summary(rep *validator.Report) string {
	errs, warns := rep.ErrorCount(), rep.WarningCount()
	switch {
	case rep.Passed():
		return fmt.Sprintf("All checks passed (%d file(s), %d warning(s))", len(rep.Files), warns)
	case errs > 0:
		return fmt.Sprintf("Validation failed with %d error(s)", errs)
	default:
		return fmt.Sprintf("Validation failed with %d warning(s) (fail_on_warnings is set)", warns)
	}
}

func location(f validator.Finding) string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return f.Path
}

func icon(sev validator.Severity) string {
	if sev == validator.SeverityError {
		return "❌"
	}
	return "⚠️"
}
