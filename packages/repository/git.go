package repository

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes git subcommands in a directory and returns stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner shells out to the git binary.
type ExecRunner struct {
	// Timeout applies when the caller's context carries no deadline of its own.
	Timeout time.Duration
	secrets []string
}

// NewExecRunner creates a runner that never prints any of secrets in its errors.
func NewExecRunner(timeout time.Duration, secrets ...string) *ExecRunner {
	r := &ExecRunner{Timeout: timeout}
	for _, s := range secrets {
		r.AddSecret(s)
	}
	return r
}

// AddSecret registers a value to be masked in error messages.
func (r *ExecRunner) AddSecret(s string) {
	if s != "" {
		r.secrets = append(r.secrets, s)
	}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok && r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var out bytes.Buffer
	var errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", fmt.Errorf("git %s failed: %w: %s", r.mask(strings.Join(args, " ")), err, r.mask(strings.TrimSpace(errb.String())))
	}
	return out.String(), nil
}

func (r *ExecRunner) mask(s string) string {
	return MaskSecrets(s, r.secrets...)
}

// MaskSecrets replaces every occurrence of each secret with "***".
func MaskSecrets(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "***")
		}
	}
	return s
}
