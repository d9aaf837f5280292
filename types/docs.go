package types

import (
	"path/filepath"
	"strings"
)

// Format is the markup dialect of a documentation file.
type Format string

const (
	FormatUnknown  Format = ""
	FormatAsciiDoc Format = "asciidoc"
	FormatMarkdown Format = "markdown"
)

var formatByExtension = map[string]Format{
	".adoc":     FormatAsciiDoc,
	".asciidoc": FormatAsciiDoc,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// FormatForPath returns the documentation format implied by the file extension.
func FormatForPath(path string) Format {
	return formatByExtension[strings.ToLower(filepath.Ext(path))]
}

// IsDocPath reports whether path carries a supported documentation extension.
func IsDocPath(path string) bool {
	return FormatForPath(path) != FormatUnknown
}

// DocExtensions lists the supported extensions in a stable order.
func DocExtensions() []string {
	return []string{".adoc", ".asciidoc", ".md", ".markdown"}
}

// Name is the human readable dialect name used in prompts and reports.
func (f Format) Name() string {
	switch f {
	case FormatAsciiDoc:
		return "AsciiDoc"
	case FormatMarkdown:
		return "Markdown"
	default:
		return "the existing format"
	}
}

// ChangeSet is the diff of the current change request against its base.
type ChangeSet struct {
	Diff         string
	Base         string
	Head         string
	MergeBase    string
	ChangedFiles []string
	PRNumber     string
}

// Empty reports whether the change set carries no textual diff.
func (c ChangeSet) Empty() bool {
	return strings.TrimSpace(c.Diff) == ""
}

// DocFile is a documentation file discovered in the workspace together with its preview.
type DocFile struct {
	Path       string
	Format     Format
	Lines      int
	Preview    string
	Summarized bool
}

// CandidateList holds the paths proposed by the relevance selector, first-seen order, no duplicates.
type CandidateList []string

// Add appends path unless it is already present. It returns false for duplicates.
func (c *CandidateList) Add(path string) bool {
	for _, p := range *c {
		if p == path {
			return false
		}
	}
	*c = append(*c, path)
	return true
}

// Selection is the parsed answer of one relevance batch.
type Selection struct {
	None     bool
	Paths    []string
	Rejected []string
}

// RevisionKind tells whether a file needs new content.
type RevisionKind int

const (
	RevisionNoUpdate RevisionKind = iota
	RevisionReplacement
)

func (k RevisionKind) String() string {
	if k == RevisionReplacement {
		return "replacement"
	}
	return "no-update"
}

// Revision is the outcome of the content reviser for one file.
type Revision struct {
	Path    string
	Kind    RevisionKind
	Content string
	Reason  string

	// Original is the file content the revision was computed against.
	Original string
}

// ModifiedFile is a file whose replacement content was (or, in dry-run, would be) written.
type ModifiedFile struct {
	Path     string
	Content  string
	Previous string
}

// CommitInfo describes the source commit that triggered the run.
type CommitInfo struct {
	RepoURL   string
	Commit    string
	ShortHash string
	PRNumber  string
	PRURL     string
}

// HasPR reports whether a change request number is known.
func (c *CommitInfo) HasPR() bool {
	return c != nil && c.PRNumber != ""
}

// WorkspaceMode distinguishes a docs subfolder of the source repository from a cloned docs repository.
type WorkspaceMode int

const (
	WorkspaceSeparateRepo WorkspaceMode = iota
	WorkspaceSameRepo
)

func (m WorkspaceMode) String() string {
	if m == WorkspaceSameRepo {
		return "same-repo"
	}
	return "separate-repo"
}

// Workspace is a writable checkout of the documentation tree.
type Workspace struct {
	// Root is the absolute directory the documentation paths are relative to.
	Root string
	// RepoRoot is the absolute root of the git repository that contains Root.
	RepoRoot  string
	Subfolder string
	Mode      WorkspaceMode
	Branch    string
	// Reused is set when an existing remote branch was checked out.
	Reused bool
}
