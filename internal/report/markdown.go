package report

import (
	"fmt"
	"strings"

	"github.com/drewdunne/copilint/internal/document"
	"github.com/drewdunne/copilint/internal/validator"
)

// Marker identifies comments posted by copilint so a later run can find
// its previous report.
const Marker = "<!-- copilint-report -->"

// Markdown renders rep for merge request comments.
func Markdown(rep *validator.Report) string {
	var b strings.Builder
	b.WriteString(Marker)
	b.WriteString("\n")
	if rep.Passed() {
		b.WriteString("## ✅ copilint\n\n")
	} else {
		b.WriteString("## ❌ copilint\n\n")
	}
	fmt.Fprintf(&b, "**%s**\n\n", Summary(rep))

	for _, cat := range document.Categories() {
		files := rep.FilesIn(cat.Kind)
		fmt.Fprintf(&b, "### %s (`%s`)\n\n", cat.Label, cat.Dir)
		if len(files) == 0 {
			b.WriteString("_No files._\n\n")
			continue
		}
		b.WriteString("| | File | Finding |\n|---|---|---|\n")
		for _, f := range files {
			if len(f.Findings) == 0 {
				fmt.Fprintf(&b, "| ✅ | `%s` | |\n", f.Path)
				continue
			}
			for _, fd := range f.Findings {
				fmt.Fprintf(&b, "| %s | `%s` | %s |\n", icon(fd.Severity), location(fd), escapeCell(fd.Message))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("### URL consistency\n\n")
	if len(rep.Links) == 0 {
		b.WriteString("✅ No deprecated URL patterns.\n")
	}
	for _, fd := range rep.Links {
		fmt.Fprintf(&b, "- %s `%s`: %s\n", icon(fd.Severity), location(fd), escapeCell(fd.Message))
	}

	if rep.RunID != "" {
		fmt.Fprintf(&b, "\n<sub>run %s</sub>\n", rep.RunID)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// SameMarkdown reports whether two rendered reports differ only in their
// run ID footer.
func SameMarkdown(a, b string) bool {
	return stripRunID(a) == stripRunID(b)
}

func stripRunID(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := lines[:0]
	for _, l := range lines {
		if !strings.HasPrefix(l, "<sub>run ") {
			out = append(out, l)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
