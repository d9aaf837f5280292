package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"docsync-agent/packages/ai"
	"docsync-agent/types"

	"go.uber.org/zap"
)

// RevisionAgent asks the model for the updated content of one documentation file.
type RevisionAgent struct {
	gen  ai.Generator
	root string
	log  *zap.SugaredLogger
}

// NewRevisionAgent creates a revision agent reading files relative to root.
func NewRevisionAgent(gen ai.Generator, root string, log *zap.SugaredLogger) *RevisionAgent {
	return &RevisionAgent{gen: gen, root: root, log: log}
}

// Revise returns a replacement or a no-update decision for path. Any error means the file is skipped.
func (r *RevisionAgent) Revise(ctx context.Context, diff, path string) (types.Revision, error) {
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		return types.Revision{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return types.Revision{}, fmt.Errorf("failed to read %s: not valid UTF-8", path)
	}
	original := string(data)

	r.log.Infow("Revision: requesting update", "file", path)
	response, err := r.gen.Generate(ctx, ai.RevisionPrompt(diff, path, original))
	if err != nil {
		return types.Revision{}, fmt.Errorf("revision request for %s failed: %w", path, err)
	}

	rev := ai.ParseRevision(path, response)
	rev.Original = original
	if rev.Kind == types.RevisionNoUpdate {
		return rev, nil
	}

	content := SanitizeReplacement(original, rev.Content)
	format := types.FormatForPath(path)
	if err := ValidateStructure(format, content); err != nil {
		// Only structure the current file already has is held against the replacement.
		if ValidateStructure(format, original) == nil {
			return types.Revision{}, fmt.Errorf("rejected replacement for %s: %w", path, err)
		}
		r.log.Warnw("Revision: current file already fails structure checks, accepting replacement", "file", path, "error", err)
	}
	if content == original {
		rev.Kind = types.RevisionNoUpdate
		rev.Content = ""
		rev.Reason = "replacement identical to current content"
		return rev, nil
	}

	rev.Content = content
	return rev, nil
}
