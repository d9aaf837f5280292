package repository

import (
	"context"

	"github.com/google/go-github/github"
)

const (
	labelColor       = "0075ca"
	labelDescription = "Documentation updated from code changes"
)

// EnsureLabels creates each missing label. Failures are logged per label.
func (c *PullRequestClient) EnsureLabels(ctx context.Context, owner, repo string, names []string) {
	for _, name := range names {
		cctx, cancel := c.callCtx(ctx)
		_, _, err := c.gh.Issues.GetLabel(cctx, owner, repo, name)
		cancel()
		if err == nil {
			c.log.Debugw("Label already exists", "label", name, "repo", owner+"/"+repo)
			continue
		}

		cctx, cancel = c.callCtx(ctx)
		_, _, err = c.gh.Issues.CreateLabel(cctx, owner, repo, &github.Label{
			Name:        github.String(name),
			Color:       github.String(labelColor),
			Description: github.String(labelDescription),
		})
		cancel()
		if err != nil {
			c.log.Warnw("Failed to create label", "label", name, "error", err)
			continue
		}
		c.log.Infow("Created label", "label", name, "repo", owner+"/"+repo)
	}
}
