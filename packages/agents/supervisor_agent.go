package agents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docsync-agent/packages/ai"
	"docsync-agent/packages/config"
	"docsync-agent/packages/report"
	repoActions "docsync-agent/packages/repository"
	"docsync-agent/packages/secrets"
	"docsync-agent/types"

	"go.uber.org/zap"
)

// DiffSource yields the change set under review.
type DiffSource interface {
	GetDiff(ctx context.Context, base string) (types.ChangeSet, error)
}

// WorkspaceProvisioner prepares the documentation checkout.
type WorkspaceProvisioner interface {
	SetupDocsWorkspace(ctx context.Context) (*types.Workspace, error)
}

// Collector lists the documentation files of a workspace.
type Collector interface {
	Collect(ctx context.Context, root string) ([]types.DocFile, error)
}

// Publisher commits, pushes and opens the pull request.
type Publisher interface {
	Publish(ctx context.Context, ws *types.Workspace, paths []string, info *types.CommitInfo) (*repoActions.PublishResult, error)
}

// Redactor removes secrets from the diff before it is sent to the model.
type Redactor interface {
	Redact(content string) secrets.Result
}

// CommitInfoFunc reads the source commit metadata.
type CommitInfoFunc func(dir, prNumber string) (*types.CommitInfo, error)

// Options wires the supervisor's collaborators.
type Options struct {
	Config     *config.Config
	Generator  ai.Generator
	Diffs      DiffSource
	Workspace  WorkspaceProvisioner
	Inventory  Collector
	Publisher  Publisher
	Redactor   Redactor
	CommitInfo CommitInfoFunc
	// WorkDir is the root of the source checkout.
	WorkDir string
	DryRun  bool
	// Out receives the dry-run report.
	Out io.Writer
	Log *zap.SugaredLogger
}

// SupervisorAgent runs the pipeline: diff, workspace, inventory, relevance, revision, publish.
type SupervisorAgent struct {
	opts Options
	log  *zap.SugaredLogger
}

// SupervisorResult summarizes one run.
type SupervisorResult struct {
	ChangeSet  types.ChangeSet
	Workspace  *types.Workspace
	Files      int
	Candidates types.CandidateList
	Modified   []types.ModifiedFile
	// Skipped maps a candidate path to the reason it was not updated.
	Skipped map[string]string
	Publish *repoActions.PublishResult
	DryRun  bool
}

// NewSupervisorAgent creates a supervisor.
func NewSupervisorAgent(opts Options) *SupervisorAgent {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &SupervisorAgent{opts: opts, log: opts.Log}
}

// Execute runs the pipeline once. Setup and publish failures are returned; per-file and per-batch
// failures are logged and skipped.
func (s *SupervisorAgent) Execute(ctx context.Context) (*SupervisorResult, error) {
	cfg := s.opts.Config
	result := &SupervisorResult{DryRun: s.opts.DryRun, Skipped: map[string]string{}}

	// Step 1: diff
	cs, err := s.opts.Diffs.GetDiff(ctx, cfg.Repository.BaseRef)
	if err != nil {
		return result, fmt.Errorf("failed to get diff: %w", err)
	}
	cs.PRNumber = cfg.Repository.PRNumber
	result.ChangeSet = cs
	if cs.Empty() {
		s.log.Infow("Supervisor: no changes detected, nothing to do", "base", cs.Base)
		return result, nil
	}
	diff := s.redact(cs.Diff)

	info := s.commitInfo(cs.PRNumber)

	// Step 2: documentation workspace
	ws, err := s.opts.Workspace.SetupDocsWorkspace(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to set up docs workspace: %w", err)
	}
	result.Workspace = ws
	s.log.Infow("Supervisor: workspace ready", "mode", ws.Mode.String(), "root", ws.Root, "branch", ws.Branch, "reused", ws.Reused)

	// Step 3: inventory
	files, err := s.opts.Inventory.Collect(ctx, ws.Root)
	if err != nil {
		return result, fmt.Errorf("failed to list documentation files: %w", err)
	}
	result.Files = len(files)
	if len(files) == 0 {
		s.log.Infow("Supervisor: no documentation files found", "root", ws.Root)
		return result, nil
	}

	// Step 4: relevance
	relevance := NewRelevanceAgent(s.opts.Generator, cfg.Selection.BatchSize, s.log)
	result.Candidates = relevance.Select(ctx, diff, files)
	if len(result.Candidates) == 0 {
		s.log.Infow("Supervisor: no documentation files need updating")
		return result, nil
	}

	// Step 5: revisions
	reviser := NewRevisionAgent(s.opts.Generator, ws.Root, s.log)
	for _, path := range result.Candidates {
		rev, err := reviser.Revise(ctx, diff, path)
		if err != nil {
			s.log.Warnw("Supervisor: skipping file", "file", path, "error", err)
			result.Skipped[path] = err.Error()
			continue
		}
		if rev.Kind == types.RevisionNoUpdate {
			s.log.Infow("Supervisor: no update needed", "file", path, "reason", rev.Reason)
			result.Skipped[path] = rev.Reason
			continue
		}

		if !s.opts.DryRun {
			if err := writeDoc(ws.Root, path, rev.Content); err != nil {
				s.log.Errorw("Supervisor: failed to write file", "file", path, "error", err)
				result.Skipped[path] = err.Error()
				continue
			}
			s.log.Infow("Supervisor: updated file", "file", path)
		}
		result.Modified = append(result.Modified, types.ModifiedFile{Path: path, Content: rev.Content, Previous: rev.Original})
	}

	if len(result.Modified) == 0 {
		s.log.Infow("Supervisor: no documentation updates were needed")
		return result, nil
	}

	paths := make([]string, len(result.Modified))
	for i, m := range result.Modified {
		paths[i] = m.Path
	}

	// Step 6: publish or report
	if s.opts.DryRun {
		return result, s.report(ws, info, result.Modified)
	}

	pub, err := s.opts.Publisher.Publish(ctx, ws, paths, info)
	result.Publish = pub
	if err != nil {
		return result, fmt.Errorf("failed to publish documentation changes: %w", err)
	}
	if pub.PullRequest != nil {
		s.log.Infow("Supervisor: workflow completed", "files", len(paths), "pr", pub.PullRequest.URL, "reused_pr", pub.PullRequest.Reused)
	}
	return result, nil
}

func (s *SupervisorAgent) redact(diff string) string {
	if !s.opts.Config.Secrets.RedactDiff || s.opts.Redactor == nil {
		return diff
	}
	res := s.opts.Redactor.Redact(diff)
	if n := len(res.Findings); n > 0 {
		rules := make([]string, 0, n)
		for _, f := range res.Findings {
			rules = append(rules, f.RuleID)
		}
		s.log.Warnw("Supervisor: redacted secrets from diff", "count", n, "rules", rules)
	}
	return res.Content
}

func (s *SupervisorAgent) commitInfo(prNumber string) *types.CommitInfo {
	if s.opts.CommitInfo == nil {
		return &types.CommitInfo{PRNumber: prNumber}
	}
	info, err := s.opts.CommitInfo(s.opts.WorkDir, prNumber)
	if err != nil {
		s.log.Warnw("Supervisor: could not read source commit, commit message will not link it", "error", err)
		return &types.CommitInfo{PRNumber: prNumber}
	}
	return info
}

func (s *SupervisorAgent) report(ws *types.Workspace, info *types.CommitInfo, modified []types.ModifiedFile) error {
	r := report.Report{
		Branch:        ws.Branch,
		CommitMessage: repoActions.BuildCommitMessage(info, s.opts.Config.AI.Attribution),
	}
	for _, m := range modified {
		r.Updates = append(r.Updates, report.Update{Path: m.Path, Before: m.Previous, After: m.Content})
		staged := m.Path
		if ws.Mode == types.WorkspaceSameRepo {
			staged = repoActions.PrefixSubfolder(ws.Subfolder, m.Path)
		}
		r.Staged = append(r.Staged, staged)
	}

	s.log.Infow("Supervisor: dry run, nothing written or published", "files", len(modified))
	return r.Render(s.opts.Out)
}

// writeDoc overwrites an existing documentation file, keeping its permissions.
func writeDoc(root, path, content string) error {
	full := filepath.Join(root, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), info.Mode().Perm())
}
