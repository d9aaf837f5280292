package ai

import (
	"strings"

	"docsync-agent/types"
)

// ParseSelection turns a relevance answer into a Selection. Entries without a supported
// documentation extension are moved to Rejected so the caller can log them.
func ParseSelection(response string) types.Selection {
	if isSentinel(response, NoneSentinel) {
		return types.Selection{None: true}
	}

	var sel types.Selection
	seen := make(map[string]bool)
	for _, line := range strings.Split(response, "\n") {
		entry := cleanListEntry(line)
		if entry == "" || strings.EqualFold(entry, NoneSentinel) || seen[entry] {
			continue
		}
		seen[entry] = true

		if !types.IsDocPath(entry) {
			sel.Rejected = append(sel.Rejected, entry)
			continue
		}
		sel.Paths = append(sel.Paths, entry)
	}

	sel.None = len(sel.Paths) == 0
	return sel
}

// cleanListEntry strips list markup the model tends to add around a path.
func cleanListEntry(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "File:")
	s = strings.TrimSpace(s)

	for _, bullet := range []string{"- ", "* ", "+ "} {
		s = strings.TrimPrefix(s, bullet)
	}
	if i := strings.Index(s, ". "); i > 0 && i <= 3 && isDigits(s[:i]) {
		s = s[i+2:]
	}

	s = strings.Trim(strings.TrimSpace(s), "`\"'")
	s = strings.TrimPrefix(s, "./")
	return strings.TrimSpace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseRevision interprets a revision answer: the no-update sentinel, or the full replacement text.
func ParseRevision(path, response string) types.Revision {
	rev := types.Revision{Path: path, Kind: types.RevisionNoUpdate}

	if isSentinel(response, NoUpdateSentinel) {
		rev.Reason = "model reported no update needed"
		return rev
	}

	content := StripFences(response)
	if strings.TrimSpace(content) == "" {
		rev.Reason = "empty response"
		return rev
	}
	if isSentinel(content, NoUpdateSentinel) {
		rev.Reason = "model reported no update needed"
		return rev
	}

	rev.Kind = types.RevisionReplacement
	rev.Content = content
	return rev
}

func isSentinel(response, sentinel string) bool {
	s := strings.Trim(strings.TrimSpace(response), "`\"'")
	return strings.EqualFold(strings.TrimSpace(s), sentinel)
}

// wrapperLanguages are the fence info strings that mark a wrapped document rather than a code sample.
var wrapperLanguages = map[string]bool{
	"": true, "markdown": true, "md": true, "adoc": true, "asciidoc": true, "text": true, "plaintext": true,
}

// StripFences removes a code fence wrapping the whole response, e.g. "```markdown ... ```".
// Leading and trailing blank lines are dropped; every other line is returned as written.
// A response that merely opens with a code block is not a wrapper and keeps its fences.
func StripFences(response string) string {
	lines := trimBlankLines(strings.Split(response, "\n"))
	if len(lines) < 2 {
		return strings.Join(lines, "\n")
	}

	first := strings.TrimSpace(lines[0])
	fence := fenceMarker(first)
	if fence == "" || !wrapperLanguages[strings.ToLower(strings.TrimSpace(first[len(fence):]))] {
		return strings.Join(lines, "\n")
	}
	last := len(lines) - 1
	if !closesFence(strings.TrimSpace(lines[last]), fence) {
		return strings.Join(lines, "\n")
	}

	// A bare fence between the two that does not close an inner block means the
	// opening fence belongs to a code block of its own.
	var inner string
	for _, line := range lines[1:last] {
		l := strings.TrimSpace(line)
		switch {
		case fenceMarker(l) == "":
		case inner != "":
			if closesFence(l, inner) {
				inner = ""
			}
		case closesFence(l, fence):
			return strings.Join(lines, "\n")
		default:
			inner = fenceMarker(l)
		}
	}
	if inner != "" {
		return strings.Join(lines, "\n")
	}
	return strings.Join(trimBlankLines(lines[1:last]), "\n")
}

// fenceMarker returns the run of backticks or tildes opening line, or "" when line is not a fence.
func fenceMarker(line string) string {
	if len(line) < 3 || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}

// closesFence reports whether line is a bare fence that ends a block opened with open.
func closesFence(line, open string) bool {
	m := fenceMarker(line)
	return m != "" && m == line && m[0] == open[0] && len(m) >= len(open)
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
