package ai

import (
	"fmt"
	"strings"

	"docsync-agent/types"
)

// Sentinels the model is told to answer with when there is nothing to do.
const (
	NoneSentinel     = "NONE"
	NoUpdateSentinel = "NO_UPDATE_NEEDED"
)

// SummaryPrompt asks for a relevance-oriented summary of a long documentation file.
func SummaryPrompt(path, content string) string {
	return fmt.Sprintf(`Analyze this documentation file and create a summary that another automated system will use to decide whether the file must change when the code changes. It will not be read by humans.

Cover:

1. **Primary Purpose**: What this file documents
2. **Key Topics Covered**: Main sections, features and components discussed
3. **Technical Keywords**: Important terms, APIs, configuration options, commands, flags
4. **Target Audience**: Who uses this documentation
5. **Related Concepts**: Other systems or features this file relates to

File: %s
Content:
%s
`, path, content)
}

// RelevancePrompt asks which files of one batch need an update for diff.
func RelevancePrompt(diff string, batch []types.DocFile) string {
	var files strings.Builder
	for i, f := range batch {
		if i > 0 {
			files.WriteString("\n\n")
		}
		fmt.Fprintf(&files, "File: %s\nPreview:\n%s", f.Path, f.Preview)
	}

	return fmt.Sprintf(`You are a VERY STRICT documentation assistant. Select ONLY the absolute minimum set of files.

A code change was made in this pull request (git diff):
%s

Below is a list of documentation files (%s) and a preview of each:

%s

STRICT RULES - BE EXTREMELY CONSERVATIVE:
1. ONLY select a command reference file if a command was added or modified
2. ONLY select a feature document if that exact feature was changed
3. When in doubt, DO NOT select the file
4. Selecting nothing is always better than selecting speculatively

Which files from this list must be updated because of the diff? Return only the file paths exactly as listed, one per line, with no explanations or formatting.
If no files need updates, return "%s".
`, diff, strings.Join(types.DocExtensions(), ", "), files.String(), NoneSentinel)
}

// RevisionPrompt asks for the complete updated file or the no-update sentinel.
func RevisionPrompt(diff, path, content string) string {
	format := types.FormatForPath(path)

	return fmt.Sprintf(`You are a CONSERVATIVE documentation assistant. Only make changes if ABSOLUTELY necessary.

%s

A developer made the following code changes:
%s

Here is the full content of the current documentation file `+"`%s`"+`:
--------------------
%s
--------------------

IMPORTANT RULES:
1. First verify the file's purpose matches the code changes. If the file is about a different feature, return %s
2. Check whether the file already covers the change adequately. Most files do not need updates.
3. Only add information DIRECTLY related to the code changes shown
4. Do NOT add tangential information
5. Do NOT rewrite or restructure the file; only add or modify what is necessary
6. Never remove existing content, links, formatting or structure

Return ONLY one of:
- %s (if the file does not need changes)
- The complete updated file in valid %s format (if changes are essential)
`, formatRules(format), diff, path, content, NoUpdateSentinel, NoUpdateSentinel, format.Name())
}

func formatRules(format types.Format) string {
	switch format {
	case types.FormatMarkdown:
		return `CRITICAL FORMATTING REQUIREMENTS FOR MARKDOWN FILES:
The output must be RAW MARKDOWN that is written directly to a .md file.
- NEVER wrap the output in code fences such as ` + "```markdown" + ` or ` + "```" + `
- The first character of the response is the first character of the file, the last character is the last character of the file
- Use standard Markdown: # for headings, fenced blocks for code inside the content, | for tables
- Table separators must be plain: |---|---|---|
- Keep all links and references intact
- Do NOT mix AsciiDoc syntax into Markdown`
	case types.FormatAsciiDoc:
		return `CRITICAL FORMATTING REQUIREMENTS FOR ASCIIDOC FILES:
The output must be RAW ASCIIDOC that is written directly to a .adoc file.
- NEVER wrap the output in code fences such as ` + "```adoc" + `, ` + "```asciidoc" + ` or ` + "```" + `
- The first character of the response is the first character of the file, the last character is the last character of the file
- Use ONLY AsciiDoc syntax: = for headings, |=== for tables, ---- for listing blocks
- Every |=== table opening has a matching |=== closing
- Keep every cross-reference (xref:) intact
- Do NOT mix Markdown syntax into AsciiDoc`
	default:
		return `FORMATTING REQUIREMENTS:
- Keep the existing format and syntax of the file
- Keep all links and references intact`
	}
}
