package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"docsync-agent/packages/config"
	"docsync-agent/types"

	"go.uber.org/zap"
)

// ErrNoToken is returned when publishing is attempted without a push token.
var ErrNoToken = errors.New("GH_TOKEN not set")

// CommitSummary is the first line of every documentation commit.
const CommitSummary = "Auto-generated doc updates from code changes"

// PullRequestOpener is the part of PullRequestClient the Publisher needs.
type PullRequestOpener interface {
	Open(ctx context.Context, req PullRequest) (*PullRequestResult, error)
}

// PublishResult records what was pushed.
type PublishResult struct {
	Branch      string
	Paths       []string
	Commit      string
	PullRequest *PullRequestResult
}

// Publisher commits the modified documentation, pushes the branch and opens the pull request.
type Publisher struct {
	git Runner
	prs PullRequestOpener
	cfg *config.Config
	log *zap.SugaredLogger
}

// NewPublisher creates a Publisher.
func NewPublisher(git Runner, prs PullRequestOpener, cfg *config.Config, log *zap.SugaredLogger) *Publisher {
	return &Publisher{git: git, prs: prs, cfg: cfg, log: log}
}

// Publish stages exactly the given workspace-relative paths. Nothing is rolled back on failure.
func (p *Publisher) Publish(ctx context.Context, ws *types.Workspace, paths []string, info *types.CommitInfo) (*PublishResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("nothing to publish")
	}
	token := p.cfg.Repository.Token
	if token == "" {
		return nil, ErrNoToken
	}

	dir := ws.RepoRoot
	branch := ws.Branch
	staged := make([]string, 0, len(paths))

	if ws.Mode == types.WorkspaceSameRepo {
		if _, err := p.git.Run(ctx, dir, "checkout", "-B", branch); err != nil {
			return nil, fmt.Errorf("failed to create branch %s: %w", branch, err)
		}
		for _, path := range paths {
			staged = append(staged, PrefixSubfolder(ws.Subfolder, path))
		}
	} else {
		staged = append(staged, paths...)
	}

	p.log.Infow("Staging documentation changes", "branch", branch, "files", staged)
	if _, err := p.git.Run(ctx, dir, append([]string{"add", "--"}, staged...)...); err != nil {
		return nil, fmt.Errorf("failed to stage files: %w", err)
	}

	msg := BuildCommitMessage(info, p.cfg.AI.Attribution)
	if _, err := p.git.Run(ctx, dir,
		"-c", "user.name="+p.cfg.Git.AuthorName,
		"-c", "user.email="+p.cfg.Git.AuthorEmail,
		"commit", "-m", msg,
	); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	sha, err := p.git.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit: %w", err)
	}
	result := &PublishResult{Branch: branch, Paths: staged, Commit: strings.TrimSpace(sha)}
	p.log.Infow("Committed documentation changes", "commit", shortSHA(result.Commit))

	remoteURL, err := p.remoteURL(ctx, ws, info)
	if err != nil {
		return result, err
	}

	if err := p.push(ctx, dir, remoteURL, branch, token); err != nil {
		return result, err
	}
	p.log.Infow("Pushed branch", "branch", branch, "repo", NormalizeRepoURL(remoteURL))

	owner, repo, err := ParseOwnerRepo(remoteURL)
	if err != nil {
		return result, err
	}

	pr, err := p.prs.Open(ctx, PullRequest{
		Owner:  owner,
		Repo:   repo,
		Head:   branch,
		Base:   p.cfg.PullRequests.BaseBranch,
		Title:  p.cfg.PullRequests.Title,
		Body:   BuildPRBody(staged),
		Labels: p.cfg.PullRequests.Labels,
	})
	if err != nil {
		p.log.Errorw("Branch was pushed but the pull request could not be opened", "branch", branch, "error", err)
		return result, err
	}
	result.PullRequest = pr
	return result, nil
}

// remoteURL is the docs repository URL for a clone, or the source repository for a subfolder workspace.
func (p *Publisher) remoteURL(ctx context.Context, ws *types.Workspace, info *types.CommitInfo) (string, error) {
	if ws.Mode == types.WorkspaceSeparateRepo && p.cfg.Repository.DocsRepoURL != "" {
		return p.cfg.Repository.DocsRepoURL, nil
	}

	out, err := p.git.Run(ctx, ws.RepoRoot, "remote", "get-url", p.remote())
	if u := strings.TrimSpace(out); err == nil && u != "" {
		return u, nil
	}
	if info != nil && info.RepoURL != "" {
		return info.RepoURL, nil
	}
	if err == nil {
		err = fmt.Errorf("remote %s has no URL", p.remote())
	}
	return "", fmt.Errorf("failed to determine push URL: %w", err)
}

func (p *Publisher) push(ctx context.Context, dir, remoteURL, branch, token string) error {
	remote := p.remote()

	// The checkout action's auth header would override the token URL.
	if _, err := p.git.Run(ctx, dir, "config", "--unset-all", "http.https://github.com/.extraheader"); err != nil {
		p.log.Debugw("No extraheader to unset", "error", err)
	}

	if _, err := p.git.Run(ctx, dir, "remote", "set-url", remote, AuthenticatedURL(remoteURL, token)); err != nil {
		return fmt.Errorf("failed to configure push URL: %w", MaskError(err, token))
	}
	if _, err := p.git.Run(ctx, dir, "push", "--set-upstream", remote, branch, "--force"); err != nil {
		return fmt.Errorf("failed to push branch %s: %w", branch, MaskError(err, token))
	}
	return nil
}

func (p *Publisher) remote() string {
	if p.cfg.Git.Remote != "" {
		return p.cfg.Git.Remote
	}
	return "origin"
}

// AuthenticatedURL embeds token into an https clone URL. Other URL forms are returned unchanged.
func AuthenticatedURL(raw, token string) string {
	if token == "" {
		return raw
	}
	u, err := url.Parse(NormalizeRepoURL(raw))
	if err != nil || u.Scheme != "https" {
		return raw
	}
	u.User = url.UserPassword("x-access-token", token)
	return u.String() + ".git"
}

// MaskError rewrites err so its message never carries token.
func MaskError(err error, token string) error {
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(MaskSecrets(err.Error(), token))
}

// PrefixSubfolder makes a workspace-relative path relative to the repository root.
func PrefixSubfolder(subfolder, path string) string {
	sub := CleanSubfolder(subfolder)
	p := strings.TrimPrefix(path, "./")
	if sub == "" {
		return p
	}
	if p == sub || strings.HasPrefix(p, sub+"/") {
		return p
	}
	return sub + "/" + p
}

// BuildCommitMessage links the documentation commit back to the source change. The Assisted-by
// trailer is always present.
func BuildCommitMessage(info *types.CommitInfo, attribution string) string {
	var b strings.Builder
	b.WriteString(CommitSummary)

	switch {
	case info.HasPR() && info.PRURL != "":
		fmt.Fprintf(&b, "\n\nPR Link: %s\nLatest commit: %s", info.PRURL, info.ShortHash)
	case info != nil && info.RepoURL != "" && info.Commit != "":
		fmt.Fprintf(&b, "\n\nCommit Link: %s/commit/%s\nLatest commit: %s", info.RepoURL, info.Commit, info.ShortHash)
	}

	if strings.TrimSpace(attribution) == "" {
		attribution = config.DefaultAttribution
	}
	fmt.Fprintf(&b, "\n\nAssisted-by: %s", attribution)
	return b.String()
}

// BuildPRBody lists the updated files as a review checklist.
func BuildPRBody(paths []string) string {
	var b strings.Builder
	b.WriteString("This PR updates the following documentation files based on code changes:\n\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "- [ ] `%s`\n", p)
	}
	b.WriteString("\nEach commit message links the source pull request or commit the update was generated from.\n")
	return b.String()
}
