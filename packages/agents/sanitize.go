package agents

import (
	"errors"
	"fmt"
	"strings"

	"docsync-agent/types"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrInvalidStructure is returned when a replacement would break the document structure.
var ErrInvalidStructure = errors.New("invalid document structure")

// SanitizeReplacement carries the trailing newline convention of the original file over to a
// replacement that already had its wrapping fence removed.
func SanitizeReplacement(original, replacement string) string {
	s := strings.TrimRight(replacement, "\r\n")
	if strings.HasSuffix(original, "\n") {
		s += "\n"
	}
	return s
}

// ValidateStructure checks that content is a plausible document of the given format.
func ValidateStructure(format types.Format, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty document", ErrInvalidStructure)
	}

	switch format {
	case types.FormatMarkdown:
		return validateMarkdown(content)
	case types.FormatAsciiDoc:
		return validateAsciiDoc(content)
	}
	return nil
}

func validateMarkdown(content string) error {
	doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(content)))
	if doc.ChildCount() == 0 {
		return fmt.Errorf("%w: no markdown blocks", ErrInvalidStructure)
	}
	if doc.ChildCount() == 1 {
		if _, ok := doc.FirstChild().(*ast.FencedCodeBlock); ok {
			return fmt.Errorf("%w: document is a single fenced code block", ErrInvalidStructure)
		}
	}
	return nil
}

// verbatimDelimiters open AsciiDoc blocks whose content is not parsed, so delimiters inside them do not count.
var verbatimDelimiters = map[byte]bool{'-': true, '.': true, '+': true, '/': true}

// validateAsciiDoc requires every delimited block to be closed by the same delimiter that opened it.
func validateAsciiDoc(content string) error {
	if strings.HasPrefix(strings.TrimSpace(content), "```") {
		return fmt.Errorf("%w: markdown code fence in asciidoc", ErrInvalidStructure)
	}

	var open []string
	for _, line := range strings.Split(content, "\n") {
		l := strings.TrimRight(line, " \t\r")
		if n := len(open); n > 0 && verbatimDelimiters[open[n-1][0]] {
			if l == open[n-1] {
				open = open[:n-1]
			}
			continue
		}
		if !isAsciiDocDelimiter(l) {
			continue
		}
		if n := len(open); n > 0 && l == open[n-1] {
			open = open[:n-1]
		} else {
			open = append(open, l)
		}
	}

	if len(open) > 0 {
		d := open[len(open)-1]
		if strings.HasPrefix(d, "|") {
			return fmt.Errorf("%w: unbalanced %s table delimiters", ErrInvalidStructure, d)
		}
		return fmt.Errorf("%w: unbalanced %s block delimiters", ErrInvalidStructure, d)
	}
	return nil
}

// isAsciiDocDelimiter matches table delimiters such as "|===" and block delimiters of four or more
// identical characters such as "----" or "====".
func isAsciiDocDelimiter(line string) bool {
	if strings.HasPrefix(line, "|") {
		return len(line) >= 4 && strings.Trim(line[1:], "=") == ""
	}
	if len(line) < 4 || !strings.ContainsRune("-.=*_+/", rune(line[0])) {
		return false
	}
	return strings.Trim(line, line[:1]) == ""
}
