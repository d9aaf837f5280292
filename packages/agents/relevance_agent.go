package agents

import (
	"context"
	"path/filepath"

	"docsync-agent/packages/ai"
	"docsync-agent/types"

	"go.uber.org/zap"
)

// RelevanceAgent asks the model, one batch of previews at a time, which documentation files a diff affects.
type RelevanceAgent struct {
	gen       ai.Generator
	batchSize int
	log       *zap.SugaredLogger
}

// NewRelevanceAgent creates a relevance agent. batchSize below one means every file goes in a single batch.
func NewRelevanceAgent(gen ai.Generator, batchSize int, log *zap.SugaredLogger) *RelevanceAgent {
	return &RelevanceAgent{gen: gen, batchSize: batchSize, log: log}
}

// Select returns the inventory paths the model proposed, first-seen order, without duplicates.
// A failing batch contributes nothing and does not stop the remaining batches.
func (r *RelevanceAgent) Select(ctx context.Context, diff string, files []types.DocFile) types.CandidateList {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}

	size := r.batchSize
	if size <= 0 {
		size = len(files)
	}

	var candidates types.CandidateList
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batch := files[start:end]
		batchNo := start/size + 1

		r.log.Infow("Relevance: checking batch", "batch", batchNo, "files", len(batch))
		response, err := r.gen.Generate(ctx, ai.RelevancePrompt(diff, batch))
		if err != nil {
			r.log.Warnw("Relevance: batch failed, skipping", "batch", batchNo, "error", err)
			continue
		}

		sel := ai.ParseSelection(response)
		for _, rejected := range sel.Rejected {
			r.log.Warnw("Relevance: discarding non-documentation entry", "batch", batchNo, "entry", rejected)
		}
		if sel.None {
			r.log.Infow("Relevance: no files selected", "batch", batchNo)
			continue
		}

		for _, path := range sel.Paths {
			if !filepath.IsLocal(filepath.FromSlash(path)) {
				r.log.Warnw("Relevance: discarding path outside the workspace", "path", path)
				continue
			}
			if !known[path] {
				r.log.Warnw("Relevance: discarding path not in the inventory", "path", path)
				continue
			}
			if candidates.Add(path) {
				r.log.Infow("Relevance: selected", "file", path)
			}
		}
	}

	r.log.Infow("Relevance: selection complete", "candidates", len(candidates))
	return candidates
}
