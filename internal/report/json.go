package report

import (
	"encoding/json"
	"io"

	"github.com/drewdunne/copilint/internal/validator"
)

type jsonSummary struct {
	Files    int    `json:"files"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

type jsonReport struct {
	*validator.Report
	Summary jsonSummary `json:"summary"`
}

// JSON writes rep as an indented JSON document with a summary block.
func JSON(w io.Writer, rep *validator.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jsonReport{
		Report: rep,
		Summary: jsonSummary{
			Files:    len(rep.Files),
			Errors:   rep.ErrorCount(),
			Warnings: rep.WarningCount(),
			Passed:   rep.Passed(),
			Message:  Summary(rep),
		},
	})
}
