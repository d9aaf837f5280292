package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"docsync-agent/packages/config"
	"docsync-agent/types"

	"go.uber.org/zap"
)

// ErrSubfolderMissing is returned when the configured docs subfolder does not exist in the source repository.
var ErrSubfolderMissing = errors.New("docs subfolder not found")

// Provisioner prepares a writable checkout of the documentation tree.
type Provisioner struct {
	git          Runner
	cfg          config.RepositoryConfig
	workDir      string
	cloneTimeout time.Duration
	log          *zap.SugaredLogger
}

// NewProvisioner creates a Provisioner. workDir is the root of the source checkout; it must be absolute.
func NewProvisioner(git Runner, cfg config.RepositoryConfig, workDir string, cloneTimeout time.Duration, log *zap.SugaredLogger) *Provisioner {
	return &Provisioner{git: git, cfg: cfg, workDir: workDir, cloneTimeout: cloneTimeout, log: log}
}

// SetupDocsWorkspace returns the subfolder workspace when a docs subfolder is configured,
// otherwise a fresh clone of the docs repository on the update branch.
func (p *Provisioner) SetupDocsWorkspace(ctx context.Context) (*types.Workspace, error) {
	if p.cfg.DocsSubfolder != "" {
		return p.sameRepo()
	}
	return p.separateRepo(ctx)
}

func (p *Provisioner) sameRepo() (*types.Workspace, error) {
	sub := CleanSubfolder(p.cfg.DocsSubfolder)
	if sub == "" || !filepath.IsLocal(filepath.FromSlash(sub)) {
		return nil, fmt.Errorf("docs subfolder %q must be a relative path inside the repository", p.cfg.DocsSubfolder)
	}

	root := filepath.Join(p.workDir, filepath.FromSlash(sub))
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		p.log.Errorw("Docs subfolder not found", "subfolder", sub)
		return nil, fmt.Errorf("%w: %s", ErrSubfolderMissing, sub)
	}

	p.log.Infow("Using docs subfolder of the source repository", "subfolder", sub)
	return &types.Workspace{
		Root:      root,
		RepoRoot:  p.workDir,
		Subfolder: sub,
		Mode:      types.WorkspaceSameRepo,
		Branch:    p.cfg.BranchName,
	}, nil
}

func (p *Provisioner) separateRepo(ctx context.Context) (*types.Workspace, error) {
	cloneDir := p.cfg.CloneDir
	if !filepath.IsAbs(cloneDir) {
		cloneDir = filepath.Join(p.workDir, cloneDir)
	}

	if _, err := os.Stat(cloneDir); err == nil {
		p.log.Infow("Removing stale clone", "dir", cloneDir)
		if err := os.RemoveAll(cloneDir); err != nil {
			return nil, fmt.Errorf("failed to remove stale clone %s: %w", cloneDir, err)
		}
	}

	p.log.Infow("Cloning docs repository", "repo", NormalizeRepoURL(p.cfg.DocsRepoURL), "dir", cloneDir)
	cloneCtx := ctx
	if p.cloneTimeout > 0 {
		var cancel context.CancelFunc
		cloneCtx, cancel = context.WithTimeout(ctx, p.cloneTimeout)
		defer cancel()
	}
	cloneURL := AuthenticatedURL(p.cfg.DocsRepoURL, p.cfg.Token)
	if _, err := p.git.Run(cloneCtx, p.workDir, "clone", cloneURL, cloneDir); err != nil {
		return nil, fmt.Errorf("failed to clone docs repository: %w", err)
	}

	ws := &types.Workspace{
		Root:     cloneDir,
		RepoRoot: cloneDir,
		Mode:     types.WorkspaceSeparateRepo,
		Branch:   p.cfg.BranchName,
	}

	branch := p.cfg.BranchName
	heads, err := p.git.Run(ctx, cloneDir, "ls-remote", "--heads", "origin", branch)
	if err != nil {
		return nil, fmt.Errorf("failed to query remote branches: %w", err)
	}

	if strings.TrimSpace(heads) != "" {
		p.log.Infow("Branch already exists remotely, reusing it", "branch", branch)
		steps := [][]string{
			{"fetch", "origin", branch},
			{"checkout", branch},
			{"pull", "origin", branch},
		}
		for _, args := range steps {
			if _, err := p.git.Run(ctx, cloneDir, args...); err != nil {
				return nil, fmt.Errorf("failed to reuse branch %s: %w", branch, err)
			}
		}
		ws.Reused = true
		return ws, nil
	}

	p.log.Infow("Creating new branch", "branch", branch)
	if _, err := p.git.Run(ctx, cloneDir, "checkout", "-b", branch); err != nil {
		return nil, fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return ws, nil
}

// CleanSubfolder normalizes a subfolder setting to a slash separated path without "./" or a trailing slash.
func CleanSubfolder(sub string) string {
	s := strings.TrimSpace(filepath.ToSlash(sub))
	if s == "" {
		return ""
	}
	s = path.Clean(s)
	if s == "." {
		return ""
	}
	return s
}
