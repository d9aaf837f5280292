package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"docsync-agent/packages/agents"
	"docsync-agent/packages/ai"
	"docsync-agent/packages/config"
	"docsync-agent/packages/inventory"
	"docsync-agent/packages/logging"
	"docsync-agent/packages/repository"
	"docsync-agent/packages/secrets"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "docsync-agent: failed to load .env: %v\n", err)
	}

	app := &cli.App{
		Name:  "docsync-agent",
		Usage: "update documentation affected by a code change and open a pull request",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "report what would change without writing files or publishing",
				EnvVars: []string{"DRY_RUN"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration (default " + config.DefaultConfigPath + " when present)",
				EnvVars: []string{"DOCSYNC_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"DOCSYNC_DEBUG"},
			},
			&cli.BoolFlag{
				Name:    "json-logs",
				Usage:   "write logs as JSON lines",
				EnvVars: []string{"DOCSYNC_JSON_LOGS"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "docsync-agent: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if c.Bool("debug") {
		cfg.Debug.Enabled = true
	}
	dryRun := c.Bool("dry-run")

	log, err := logging.New(logging.Options{Debug: cfg.Debug.Enabled, JSON: c.Bool("json-logs")})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(dryRun); err != nil {
		log.Errorw("Invalid configuration", "error", err)
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	ctx := c.Context
	gen, err := ai.NewClient(ctx, cfg.AI, cfg.Timeouts.Model, log)
	if err != nil {
		return err
	}
	defer gen.Close()

	runner := repository.NewExecRunner(cfg.Timeouts.Git, cfg.Repository.Token)

	var redactor agents.Redactor
	if cfg.Secrets.RedactDiff {
		r, err := secrets.NewRedactor()
		if err != nil {
			return err
		}
		redactor = r
	}

	var publisher agents.Publisher
	if !dryRun {
		prs, err := repository.NewPullRequestClient(ctx, cfg.Repository.Token, cfg.PullRequests.APIBaseURL, cfg.Timeouts.GitHub, log)
		if err != nil {
			return err
		}
		publisher = repository.NewPublisher(runner, prs, cfg, log)
	}

	supervisor := agents.NewSupervisorAgent(agents.Options{
		Config:     cfg,
		Generator:  gen,
		Diffs:      repository.NewSource(runner, workDir, log),
		Workspace:  repository.NewProvisioner(runner, cfg.Repository, workDir, cfg.Timeouts.Clone, log),
		Inventory:  inventory.New(gen, cfg.Inventory, log),
		Publisher:  publisher,
		Redactor:   redactor,
		CommitInfo: repository.GetCommitInfo,
		WorkDir:    workDir,
		DryRun:     dryRun,
		Out:        os.Stdout,
		Log:        log,
	})

	log.Infow("Starting documentation update", "dry_run", dryRun, "base", cfg.Repository.BaseRef, "pr", cfg.Repository.PRNumber)
	result, err := supervisor.Execute(ctx)
	if err != nil {
		log.Errorw("Documentation update failed", "error", err)
		return err
	}

	log.Infow("Documentation update finished",
		"files_scanned", result.Files,
		"candidates", len(result.Candidates),
		"updated", len(result.Modified),
		"dry_run", result.DryRun,
	)
	return nil
}
