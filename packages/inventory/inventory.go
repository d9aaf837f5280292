// Package inventory discovers documentation files and builds the preview the relevance selector sees.
package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docsync-agent/packages/ai"
	"docsync-agent/packages/config"
	"docsync-agent/types"

	"go.uber.org/zap"
)

// Inventory walks a documentation tree.
type Inventory struct {
	gen        ai.Generator
	threshold  int
	ignoreDirs map[string]bool
	log        *zap.SugaredLogger
}

// New creates an Inventory. gen summarizes files longer than the configured line threshold.
func New(gen ai.Generator, cfg config.InventoryConfig, log *zap.SugaredLogger) *Inventory {
	ignore := make(map[string]bool, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		ignore[strings.ToLower(d)] = true
	}
	return &Inventory{gen: gen, threshold: cfg.LineThreshold, ignoreDirs: ignore, log: log}
}

// Collect returns every readable documentation file under root in lexical order.
// Paths are slash separated and relative to root.
func (inv *Inventory) Collect(ctx context.Context, root string) ([]types.DocFile, error) {
	var files []types.DocFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			inv.log.Warnw("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && inv.ignoreDirs[strings.ToLower(d.Name())] {
				return fs.SkipDir
			}
			return nil
		}
		if !types.IsDocPath(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		content, err := os.ReadFile(path)
		if err != nil {
			inv.log.Warnw("Skipping unreadable file", "file", relPath, "error", err)
			return nil
		}
		if isBinary(content) {
			inv.log.Warnw("Skipping binary file", "file", relPath)
			return nil
		}
		if !utf8.Valid(content) {
			inv.log.Warnw("Skipping file that is not valid UTF-8", "file", relPath)
			return nil
		}

		files = append(files, inv.describe(ctx, relPath, string(content)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	inv.log.Infow("Found documentation files", "count", len(files))
	return files, nil
}

func (inv *Inventory) describe(ctx context.Context, relPath, content string) types.DocFile {
	lines := strings.Count(content, "\n") + 1
	f := types.DocFile{
		Path:    relPath,
		Format:  types.FormatForPath(relPath),
		Lines:   lines,
		Preview: content,
	}
	if lines <= inv.threshold {
		return f
	}

	inv.log.Infow("Summarizing long file", "file", relPath, "lines", lines)
	summary, err := inv.gen.Generate(ctx, ai.SummaryPrompt(relPath, content))
	if err != nil || strings.TrimSpace(summary) == "" {
		inv.log.Warnw("Summary failed, using truncated preview", "file", relPath, "error", err)
		f.Preview = truncatedPreview(content, inv.threshold)
		return f
	}

	f.Preview = strings.TrimSpace(summary)
	f.Summarized = true
	return f
}

// truncatedPreview keeps the first n lines and notes how many were dropped.
func truncatedPreview(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n... [truncated: %d more lines]", len(lines)-n)
}

// isBinary checks the first 8KiB for NUL bytes or a high share of control characters.
func isBinary(content []byte) bool {
	checkSize := min(len(content), 8192)
	if checkSize == 0 {
		return false
	}

	nonPrintable := 0
	for _, b := range content[:checkSize] {
		if b == 0 {
			return true
		}
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(checkSize) > 0.30
}
