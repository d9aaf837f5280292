// Package secrets scrubs credentials out of text before it is sent to a model.
package secrets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Marker replaces every detected secret. The rule id is appended so reviewers can tell what was removed.
const Marker = "[REDACTED:%s]"

// Finding is one detected secret.
type Finding struct {
	RuleID string
	Line   int
	Secret string
}

// Result is the redacted text and what was removed from it.
type Result struct {
	Content  string
	Findings []Finding
}

// Redactor wraps a gitleaks detector built from the default rule set.
type Redactor struct {
	detector *detect.Detector
}

// NewRedactor loads the default gitleaks configuration.
func NewRedactor() (*Redactor, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load secret detection rules: %w", err)
	}
	return &Redactor{detector: detector}, nil
}

// Redact replaces every secret found in content with Marker.
func (r *Redactor) Redact(content string) Result {
	found := r.detector.DetectString(content)
	if len(found) == 0 {
		return Result{Content: content}
	}

	findings := make([]Finding, 0, len(found))
	for _, f := range found {
		if f.Secret == "" {
			continue
		}
		findings = append(findings, Finding{RuleID: f.RuleID, Line: f.StartLine, Secret: f.Secret})
	}

	// Longest first so a secret that contains another is replaced whole.
	ordered := make([]Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Secret) > len(ordered[j].Secret)
	})

	redacted := content
	for _, f := range ordered {
		redacted = strings.ReplaceAll(redacted, f.Secret, fmt.Sprintf(Marker, f.RuleID))
	}
	return Result{Content: redacted, Findings: findings}
}
