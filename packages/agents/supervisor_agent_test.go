package agents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"docsync-agent/packages/config"
	"docsync-agent/packages/inventory"
	"docsync-agent/packages/logging"
	repoActions "docsync-agent/packages/repository"
	"docsync-agent/packages/secrets"
	"docsync-agent/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authDiff = `diff --git a/server/auth.go b/server/auth.go
+// Login now accepts a personal access token via --token.
+func LoginWithToken(token string) error { return nil }
`

type fakeDiffs struct {
	cs  types.ChangeSet
	err error
}

func (f *fakeDiffs) GetDiff(ctx context.Context, base string) (types.ChangeSet, error) {
	f.cs.Base = base
	return f.cs, f.err
}

type fakeWorkspace struct {
	ws    *types.Workspace
	err   error
	calls int
}

func (f *fakeWorkspace) SetupDocsWorkspace(ctx context.Context) (*types.Workspace, error) {
	f.calls++
	return f.ws, f.err
}

type fakePublisher struct {
	paths [][]string
	info  *types.CommitInfo
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, ws *types.Workspace, paths []string, info *types.CommitInfo) (*repoActions.PublishResult, error) {
	f.paths = append(f.paths, paths)
	f.info = info
	if f.err != nil {
		return nil, f.err
	}
	return &repoActions.PublishResult{
		Branch:      ws.Branch,
		Paths:       paths,
		PullRequest: &repoActions.PullRequestResult{Number: 12, URL: "https://github.com/acme/docs/pull/12"},
	}, nil
}

type fakeRedactor struct{ calls int }

func (f *fakeRedactor) Redact(content string) secrets.Result {
	f.calls++
	return secrets.Result{Content: content}
}

const (
	authGuide = "= Authentication guide\n\nLog in with your password.\n"
	unrelated = "# Changelog policy\n\nWe keep a changelog.\n"
	revised   = "= Authentication guide\n\nLog in with your password.\n\nYou can also pass a personal access token with `--token`.\n"
)

// docsModel plays the model for the auth-guide scenario.
func docsModel() *scriptedGenerator {
	return &scriptedGenerator{answer: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "VERY STRICT"):
			return "auth-guide.adoc\nsrc/main.go", nil
		case strings.Contains(prompt, "`auth-guide.adoc`"):
			return revised, nil
		default:
			return "NO_UPDATE_NEEDED", nil
		}
	}}
}

type scenario struct {
	root      string
	gen       *scriptedGenerator
	diffs     *fakeDiffs
	workspace *fakeWorkspace
	publisher *fakePublisher
	redactor  *fakeRedactor
	out       bytes.Buffer
}

func newScenario(t *testing.T) *scenario {
	root := writeDocs(t, map[string]string{
		"auth-guide.adoc": authGuide,
		"unrelated.md":    unrelated,
	})
	return &scenario{
		root:      root,
		gen:       docsModel(),
		diffs:     &fakeDiffs{cs: types.ChangeSet{Diff: authDiff}},
		workspace: &fakeWorkspace{ws: &types.Workspace{Root: root, RepoRoot: root, Mode: types.WorkspaceSeparateRepo, Branch: "doc-update-from-pr"}},
		publisher: &fakePublisher{},
		redactor:  &fakeRedactor{},
	}
}

func (s *scenario) supervisor(dryRun bool) *SupervisorAgent {
	cfg := config.Default()
	cfg.Repository.PRNumber = "41"
	log := logging.NewNop()
	return NewSupervisorAgent(Options{
		Config:    cfg,
		Generator: s.gen,
		Diffs:     s.diffs,
		Workspace: s.workspace,
		Inventory: inventory.New(s.gen, cfg.Inventory, log),
		Publisher: s.publisher,
		Redactor:  s.redactor,
		CommitInfo: func(dir, pr string) (*types.CommitInfo, error) {
			return &types.CommitInfo{
				RepoURL: "https://github.com/acme/service", Commit: "0123456789", ShortHash: "0123456",
				PRNumber: pr, PRURL: "https://github.com/acme/service/pull/" + pr,
			}, nil
		},
		DryRun: dryRun,
		Out:    &s.out,
		Log:    log,
	})
}

func TestExecute_UpdatesOnlyAffectedFile(t *testing.T) {
	s := newScenario(t)

	res, err := s.supervisor(false).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, revised, readDoc(t, s.root, "auth-guide.adoc"))
	assert.Equal(t, unrelated, readDoc(t, s.root, "unrelated.md"))

	assert.Equal(t, types.CandidateList{"auth-guide.adoc"}, res.Candidates)
	require.Len(t, res.Modified, 1)
	assert.Equal(t, authGuide, res.Modified[0].Previous)
	assert.Equal(t, [][]string{{"auth-guide.adoc"}}, s.publisher.paths)
	assert.Equal(t, "41", s.publisher.info.PRNumber)
	assert.Equal(t, 12, res.Publish.PullRequest.Number)
	assert.Equal(t, "origin/main", res.ChangeSet.Base)
	assert.Equal(t, 1, s.redactor.calls)

	assert.Equal(t, 1, s.gen.count("VERY STRICT documentation assistant"), "two files fit in one relevance batch")
	assert.Equal(t, 1, s.gen.count("CONSERVATIVE documentation assistant"), "only the selected file is revised")
	assert.Empty(t, s.out.String())
}

func TestExecute_DryRun(t *testing.T) {
	s := newScenario(t)

	res, err := s.supervisor(true).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, authGuide, readDoc(t, s.root, "auth-guide.adoc"))
	assert.Equal(t, unrelated, readDoc(t, s.root, "unrelated.md"))
	assert.Empty(t, s.publisher.paths)
	assert.True(t, res.DryRun)
	require.Len(t, res.Modified, 1)

	out := s.out.String()
	assert.Contains(t, out, "[DRY RUN] Would update: auth-guide.adoc")
	assert.Contains(t, out, "+You can also pass a personal access token with `--token`.")
	assert.Contains(t, out, "PR Link: https://github.com/acme/service/pull/41")
	assert.NotContains(t, out, "unrelated.md")
}

func TestExecute_DryRunSameRepoReportsPrefixedPaths(t *testing.T) {
	s := newScenario(t)
	s.workspace.ws.Mode = types.WorkspaceSameRepo
	s.workspace.ws.Subfolder = "docs"

	_, err := s.supervisor(true).Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, s.out.String(), "  docs/auth-guide.adoc\n")
}

func TestExecute_EmptyDiff(t *testing.T) {
	s := newScenario(t)
	s.diffs.cs.Diff = "  \n"

	res, err := s.supervisor(false).Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, res.ChangeSet.Empty())
	assert.Zero(t, s.workspace.calls)
	assert.Empty(t, s.gen.prompts)
	assert.Empty(t, s.publisher.paths)
}

func TestExecute_NothingSelected(t *testing.T) {
	s := newScenario(t)
	s.gen.answer = func(string) (string, error) { return "NONE", nil }

	res, err := s.supervisor(false).Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, s.publisher.paths)
}

func TestExecute_AllRevisionsDeclined(t *testing.T) {
	s := newScenario(t)
	s.gen.answer = func(prompt string) (string, error) {
		if strings.Contains(prompt, "VERY STRICT") {
			return "auth-guide.adoc\nunrelated.md", nil
		}
		return "NO_UPDATE_NEEDED", nil
	}

	res, err := s.supervisor(false).Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Modified)
	assert.Len(t, res.Skipped, 2)
	assert.Empty(t, s.publisher.paths)
	assert.Equal(t, authGuide, readDoc(t, s.root, "auth-guide.adoc"))
}

func TestExecute_SetupFaultsAreFatal(t *testing.T) {
	t.Run("diff", func(t *testing.T) {
		s := newScenario(t)
		s.diffs.err = errors.New("bad revision")
		_, err := s.supervisor(false).Execute(context.Background())
		assert.ErrorContains(t, err, "failed to get diff")
	})

	t.Run("workspace", func(t *testing.T) {
		s := newScenario(t)
		s.workspace.err = repoActions.ErrSubfolderMissing
		_, err := s.supervisor(false).Execute(context.Background())
		assert.ErrorIs(t, err, repoActions.ErrSubfolderMissing)
		assert.Empty(t, s.gen.prompts)
	})
}

func TestExecute_PublishFaultIsReturned(t *testing.T) {
	s := newScenario(t)
	s.publisher.err = errors.New("push rejected")

	_, err := s.supervisor(false).Execute(context.Background())
	assert.ErrorContains(t, err, "push rejected")
	assert.Equal(t, revised, readDoc(t, s.root, "auth-guide.adoc"), "written files are not rolled back")
}

func TestExecute_CommitInfoFailureIsNotFatal(t *testing.T) {
	s := newScenario(t)
	sup := s.supervisor(false)
	sup.opts.CommitInfo = func(string, string) (*types.CommitInfo, error) { return nil, errors.New("not a repo") }

	_, err := sup.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "41", s.publisher.info.PRNumber)
}
