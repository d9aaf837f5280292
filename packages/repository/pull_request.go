package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// PullRequest describes the request to open on the docs repository.
type PullRequest struct {
	Owner string
	Repo  string
	Head  string
	// Base falls back to the repository default branch when empty.
	Base   string
	Title  string
	Body   string
	Labels []string
}

// PullRequestResult is the opened (or already open) pull request.
type PullRequestResult struct {
	Number int
	URL    string
	Reused bool
}

// PullRequestClient opens documentation pull requests through the GitHub API.
type PullRequestClient struct {
	gh      *github.Client
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewPullRequestClient authenticates with token. apiBaseURL targets GitHub Enterprise when set.
func NewPullRequestClient(ctx context.Context, token, apiBaseURL string, timeout time.Duration, log *zap.SugaredLogger) (*PullRequestClient, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	if apiBaseURL != "" {
		if !strings.HasSuffix(apiBaseURL, "/") {
			apiBaseURL += "/"
		}
		u, err := url.Parse(apiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
		gh.BaseURL = u
	}

	return &PullRequestClient{gh: gh, timeout: timeout, log: log}, nil
}

func (c *PullRequestClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Open creates the pull request, or returns the open one already proposing req.Head.
// Label failures are logged and do not fail the call.
func (c *PullRequestClient) Open(ctx context.Context, req PullRequest) (*PullRequestResult, error) {
	base := req.Base
	if base == "" {
		b, err := c.defaultBranch(ctx, req.Owner, req.Repo)
		if err != nil {
			return nil, err
		}
		base = b
	}

	result, err := c.findOpen(ctx, req.Owner, req.Repo, req.Head)
	if err != nil {
		return nil, err
	}

	if result != nil {
		c.log.Infow("Pull request already open for branch, reusing it", "number", result.Number, "url", result.URL)
	} else {
		cctx, cancel := c.callCtx(ctx)
		pr, _, err := c.gh.PullRequests.Create(cctx, req.Owner, req.Repo, &github.NewPullRequest{
			Title: github.String(req.Title),
			Head:  github.String(req.Head),
			Base:  github.String(base),
			Body:  github.String(req.Body),
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to create pull request: %w", err)
		}
		result = &PullRequestResult{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}
		c.log.Infow("Created pull request", "number", result.Number, "url", result.URL, "base", base)
	}

	if len(req.Labels) > 0 {
		c.EnsureLabels(ctx, req.Owner, req.Repo, req.Labels)

		cctx, cancel := c.callCtx(ctx)
		_, _, err := c.gh.Issues.AddLabelsToIssue(cctx, req.Owner, req.Repo, result.Number, req.Labels)
		cancel()
		if err != nil {
			c.log.Warnw("Failed to label pull request", "number", result.Number, "labels", req.Labels, "error", err)
		}
	}

	return result, nil
}

func (c *PullRequestClient) defaultBranch(ctx context.Context, owner, repo string) (string, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	r, _, err := c.gh.Repositories.Get(cctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to read repository %s/%s: %w", owner, repo, err)
	}
	if r.GetDefaultBranch() == "" {
		return "", fmt.Errorf("repository %s/%s reports no default branch", owner, repo)
	}
	return r.GetDefaultBranch(), nil
}

func (c *PullRequestClient) findOpen(ctx context.Context, owner, repo, head string) (*PullRequestResult, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	prs, _, err := c.gh.PullRequests.List(cctx, owner, repo, &github.PullRequestListOptions{
		State: "open",
		Head:  owner + ":" + head,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return &PullRequestResult{Number: prs[0].GetNumber(), URL: prs[0].GetHTMLURL(), Reused: true}, nil
}
