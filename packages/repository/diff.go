package repository

import (
	"context"
	"fmt"
	"strings"

	"docsync-agent/types"

	"go.uber.org/zap"
)

// Source reads the change set of the checkout the job runs in.
type Source struct {
	git Runner
	dir string
	log *zap.SugaredLogger
}

// NewSource creates a Source for the repository at dir.
func NewSource(git Runner, dir string, log *zap.SugaredLogger) *Source {
	return &Source{git: git, dir: dir, log: log}
}

// GetDiff returns every change between the merge base of base and HEAD. When the merge base
// cannot be resolved (shallow clone, unknown ref) it degrades to a direct diff against base.
func (s *Source) GetDiff(ctx context.Context, base string) (types.ChangeSet, error) {
	cs := types.ChangeSet{Base: base, Head: "HEAD"}

	out, err := s.git.Run(ctx, s.dir, "merge-base", base, "HEAD")
	mergeBase := strings.TrimSpace(out)
	if err != nil || mergeBase == "" {
		s.log.Warnw("Could not resolve merge base, falling back to direct diff", "base", base, "error", err)

		diff, err := s.git.Run(ctx, s.dir, "diff", base+"...HEAD")
		if err != nil {
			return cs, fmt.Errorf("failed to diff against %s: %w", base, err)
		}
		cs.Diff = diff
		return cs, nil
	}

	cs.MergeBase = mergeBase
	s.log.Infow("Using merge base", "base", base, "merge_base", shortSHA(mergeBase))

	names, err := s.git.Run(ctx, s.dir, "diff", "--name-only", mergeBase+"...HEAD")
	if err != nil {
		s.log.Warnw("Could not list changed files", "error", err)
	} else {
		for _, ln := range strings.Split(names, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				cs.ChangedFiles = append(cs.ChangedFiles, ln)
			}
		}
		s.log.Infow("Files changed in PR", "count", len(cs.ChangedFiles), "files", cs.ChangedFiles)
	}

	diff, err := s.git.Run(ctx, s.dir, "diff", mergeBase+"...HEAD")
	if err != nil {
		return cs, fmt.Errorf("failed to diff %s...HEAD: %w", shortSHA(mergeBase), err)
	}
	cs.Diff = diff
	return cs, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
