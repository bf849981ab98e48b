package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/drewdunne/copilint/internal/document"
	"github.com/drewdunne/copilint/internal/validator"
)

// Text writes the terminal report. Colors are only emitted when w is a
// terminal.
func Text(w io.Writer, rep *validator.Report) error {
	r := lipgloss.NewRenderer(w)
	var (
		header = r.NewStyle().Bold(true).Underline(true)
		ok     = r.NewStyle().Foreground(lipgloss.Color("2"))
		bad    = r.NewStyle().Foreground(lipgloss.Color("1"))
		warn   = r.NewStyle().Foreground(lipgloss.Color("3"))
		banner = r.NewStyle().Bold(true)
	)

	var b strings.Builder
	line := func(style lipgloss.Style, text string) {
		b.WriteString("  ")
		b.WriteString(style.Render(text))
		b.WriteByte('\n')
	}
	finding := func(f validator.Finding) {
		style := bad
		if f.Severity == validator.SeverityWarning {
			style = warn
		}
		line(style, fmt.Sprintf("%s %s: %s", icon(f.Severity), location(f), f.Message))
	}

	b.WriteString(banner.Render("Validating " + rep.Source))
	b.WriteString("\n\n")

	for _, cat := range document.Categories() {
		b.WriteString(header.Render(fmt.Sprintf("%s (%s)", cat.Label, cat.Dir)))
		b.WriteByte('\n')
		files := rep.FilesIn(cat.Kind)
		if len(files) == 0 {
			line(r.NewStyle().Faint(true), "no files")
		}
		for _, f := range files {
			if len(f.Findings) == 0 {
				line(ok, "✅ "+f.Path)
				continue
			}
			for _, fd := range f.Findings {
				finding(fd)
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString(header.Render("URL consistency"))
	b.WriteByte('\n')
	if len(rep.Links) == 0 {
		line(ok, "✅ no deprecated URL patterns")
	}
	for _, fd := range rep.Links {
		finding(fd)
	}
	b.WriteByte('\n')

	if rep.Passed() {
		b.WriteString(banner.Inherit(ok).Render("✅ " + Summary(rep)))
	} else {
		b.WriteString(banner.Inherit(bad).Render("❌ " + Summary(rep)))
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
