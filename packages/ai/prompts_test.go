package ai

import (
	"testing"

	"docsync-agent/types"

	"github.com/stretchr/testify/assert"
)

func TestRelevancePrompt(t *testing.T) {
	prompt := RelevancePrompt("diff --git a/server/auth.go b/server/auth.go", []types.DocFile{
		{Path: "auth-guide.adoc", Preview: "= Auth guide"},
		{Path: "unrelated.md", Preview: "# Unrelated"},
	})

	assert.Contains(t, prompt, "server/auth.go")
	assert.Contains(t, prompt, "File: auth-guide.adoc\nPreview:\n= Auth guide")
	assert.Contains(t, prompt, "File: unrelated.md\nPreview:\n# Unrelated")
	assert.Contains(t, prompt, `return "NONE"`)
	assert.Contains(t, prompt, ".adoc")
	assert.Contains(t, prompt, ".md")
}

func TestRevisionPrompt_FormatRules(t *testing.T) {
	md := RevisionPrompt("d", "guide.md", "# Guide")
	assert.Contains(t, md, "MARKDOWN FILES")
	assert.Contains(t, md, "valid Markdown format")
	assert.NotContains(t, md, "ASCIIDOC FILES")

	adoc := RevisionPrompt("d", "guide.adoc", "= Guide")
	assert.Contains(t, adoc, "ASCIIDOC FILES")
	assert.Contains(t, adoc, "|===")
	assert.Contains(t, adoc, "xref:")
	assert.Contains(t, adoc, "valid AsciiDoc format")

	for _, p := range []string{md, adoc} {
		assert.Contains(t, p, NoUpdateSentinel)
		assert.Contains(t, p, "Never remove existing content")
	}
}

func TestSummaryPrompt(t *testing.T) {
	p := SummaryPrompt("big.adoc", "content here")
	for _, want := range []string{"Primary Purpose", "Key Topics", "Technical Keywords", "Target Audience", "Related Concepts", "big.adoc", "content here"} {
		assert.Contains(t, p, want)
	}
}
