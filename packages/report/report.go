// Package report renders what a dry run would have changed.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
)

// Update is one file that would be rewritten.
type Update struct {
	Path   string
	Before string
	After  string
}

// Report is the dry-run outcome.
type Report struct {
	Branch        string
	Updates       []Update
	Staged        []string
	CommitMessage string
}

// UnifiedDiff renders before and after as a unified diff with three lines of context.
func UnifiedDiff(path, before, after string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

// Render writes the report. Colors are only emitted when w is a terminal.
func (r Report) Render(w io.Writer) error {
	renderer := lipgloss.NewRenderer(w)
	title := renderer.NewStyle().Bold(true)
	added := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	removed := renderer.NewStyle().Foreground(lipgloss.Color("1"))
	hunk := renderer.NewStyle().Foreground(lipgloss.Color("6"))

	var b strings.Builder
	fmt.Fprintln(&b, title.Render(fmt.Sprintf("[DRY RUN] %d documentation file(s) would be updated", len(r.Updates))))

	for _, u := range r.Updates {
		fmt.Fprintf(&b, "\n%s\n", title.Render("[DRY RUN] Would update: "+u.Path))

		diff, err := UnifiedDiff(u.Path, u.Before, u.After)
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", u.Path, err)
		}
		for _, line := range strings.SplitAfter(diff, "\n") {
			if line == "" {
				continue
			}
			text := strings.TrimSuffix(line, "\n")
			switch {
			case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
				text = title.Render(text)
			case strings.HasPrefix(text, "@@"):
				text = hunk.Render(text)
			case strings.HasPrefix(text, "+"):
				text = added.Render(text)
			case strings.HasPrefix(text, "-"):
				text = removed.Render(text)
			}
			b.WriteString(text + "\n")
		}
	}

	if len(r.Staged) > 0 {
		fmt.Fprintf(&b, "\n%s\n", title.Render("[DRY RUN] Would stage on branch "+r.Branch+":"))
		for _, p := range r.Staged {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	if r.CommitMessage != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", title.Render("[DRY RUN] Would commit with message:"), r.CommitMessage)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
