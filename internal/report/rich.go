package report

import (
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/drewdunne/copilint/internal/validator"
)

// Rich renders the Markdown report for a terminal. An empty style picks
// one from the terminal background.
func Rich(w io.Writer, rep *validator.Report, style string) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return err
	}
	out, err := r.Render(Markdown(rep))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
