package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no --config flag is given. A missing default file is not an error.
const DefaultConfigPath = "config/docsync.yaml"

// DefaultAttribution names the assisting model in the commit trailer when ai.attribution is empty.
const DefaultAttribution = "Gemini"

// Config represents the application configuration
type Config struct {
	AI           AIConfig           `yaml:"ai"`
	Inventory    InventoryConfig    `yaml:"inventory"`
	Selection    SelectionConfig    `yaml:"selection"`
	Repository   RepositoryConfig   `yaml:"repository"`
	Git          GitConfig          `yaml:"git"`
	PullRequests PullRequestsConfig `yaml:"pull_requests"`
	Secrets      SecretsConfig      `yaml:"secrets"`
	Timeouts     TimeoutsConfig     `yaml:"timeouts"`
	Debug        DebugConfig        `yaml:"debug"`
}

// AIConfig contains AI-related configuration
type AIConfig struct {
	// Provider is "gemini" or "openai".
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	Temperature       float32 `yaml:"temperature"`
	TopK              int32   `yaml:"top_k"`
	TopP              float32 `yaml:"top_p"`
	MaxOutputTokens   int32   `yaml:"max_output_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	MaxRetries        int     `yaml:"max_retries"`
	// Attribution is the name written in the Assisted-by commit trailer.
	Attribution string `yaml:"attribution"`
	APIKey      string `yaml:"-"`
}

// InventoryConfig controls documentation discovery
type InventoryConfig struct {
	LineThreshold int      `yaml:"line_threshold"`
	IgnoreDirs    []string `yaml:"ignore_dirs"`
}

// SelectionConfig controls the relevance selector
type SelectionConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// RepositoryConfig contains repository-related configuration
type RepositoryConfig struct {
	DocsRepoURL string `yaml:"docs_repo_url"`
	// DocsSubfolder selects same-repository mode when set.
	DocsSubfolder string `yaml:"docs_subfolder"`
	CloneDir      string `yaml:"clone_dir"`
	BranchName    string `yaml:"branch_name"`
	BaseRef       string `yaml:"base_ref"`
	PRNumber      string `yaml:"-"`
	Token         string `yaml:"-"`
}

// GitConfig holds the identity used for documentation commits
type GitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	Remote      string `yaml:"remote"`
}

// PullRequestsConfig contains PR-related configuration
type PullRequestsConfig struct {
	Title string `yaml:"title"`
	// BaseBranch overrides the docs repository default branch when set.
	BaseBranch string   `yaml:"base_branch"`
	Labels     []string `yaml:"labels"`
	APIBaseURL string   `yaml:"api_base_url"`
}

// SecretsConfig controls redaction of the diff before it leaves the process
type SecretsConfig struct {
	RedactDiff bool `yaml:"redact_diff"`
}

// TimeoutsConfig bounds every blocking call
type TimeoutsConfig struct {
	Model  time.Duration `yaml:"model"`
	Git    time.Duration `yaml:"git"`
	Clone  time.Duration `yaml:"clone"`
	GitHub time.Duration `yaml:"github"`
}

// DebugConfig contains debug-related configuration
type DebugConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Provider:          "gemini",
			Model:             "gemini-2.5-flash",
			Temperature:       0.2,
			TopK:              40,
			TopP:              0.95,
			MaxOutputTokens:   65536,
			RequestsPerMinute: 10,
			MaxRetries:        3,
			Attribution:       DefaultAttribution,
		},
		Inventory: InventoryConfig{
			LineThreshold: 300,
			IgnoreDirs: []string{
				".git", ".svn", ".hg", "node_modules", "vendor",
				".venv", "venv", "__pycache__", "dist", "build", "target",
				".idea", ".vscode",
			},
		},
		Selection: SelectionConfig{BatchSize: 10},
		Repository: RepositoryConfig{
			CloneDir:   "docs_repo",
			BranchName: "doc-update-from-pr",
			BaseRef:    "origin/main",
		},
		Git: GitConfig{
			AuthorName:  "docsync-bot",
			AuthorEmail: "docsync-bot@users.noreply.github.com",
			Remote:      "origin",
		},
		PullRequests: PullRequestsConfig{
			Title:  "Auto-Generated Doc Updates from Code PR",
			Labels: []string{"documentation"},
		},
		Secrets: SecretsConfig{RedactDiff: true},
		Timeouts: TimeoutsConfig{
			Model:  3 * time.Minute,
			Git:    2 * time.Minute,
			Clone:  10 * time.Minute,
			GitHub: 30 * time.Second,
		},
	}
}

// LoadConfig loads configuration from the specified file on top of Default.
// An empty path reads DefaultConfigPath and tolerates its absence.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays the per-run settings and secrets from the environment.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	switch c.AI.Provider {
	case "openai":
		set(&c.AI.APIKey, "OPENAI_API_KEY")
	default:
		set(&c.AI.APIKey, "GEMINI_API_KEY")
	}
	set(&c.AI.Model, "DOCSYNC_MODEL")
	set(&c.Repository.DocsRepoURL, "DOCS_REPO_URL")
	set(&c.Repository.DocsSubfolder, "DOCS_SUBFOLDER")
	set(&c.Repository.BaseRef, "PR_BASE")
	set(&c.Repository.Token, "GH_TOKEN")

	if v, ok := lookup("PR_NUMBER"); ok {
		v = strings.TrimSpace(v)
		if v != "" && v != "unknown" {
			c.Repository.PRNumber = v
		}
	}
}

// Validate reports every missing or invalid setting at once. The push token is only required when publishing
// and the docs repository URL only when the docs do not live in a subfolder.
func (c *Config) Validate(dryRun bool) error {
	var errs []error

	if c.AI.APIKey == "" {
		errs = append(errs, fmt.Errorf("API key for provider %q not set in environment", c.AI.Provider))
	}
	if c.AI.Provider != "gemini" && c.AI.Provider != "openai" {
		errs = append(errs, fmt.Errorf("unknown ai.provider %q", c.AI.Provider))
	}
	if c.Repository.DocsRepoURL == "" && !c.SameRepo() {
		errs = append(errs, errors.New("DOCS_REPO_URL not set in environment"))
	}
	if !dryRun && c.Repository.Token == "" {
		errs = append(errs, errors.New("GH_TOKEN not set in environment"))
	}
	if c.Repository.BranchName == "" {
		errs = append(errs, errors.New("repository.branch_name must not be empty"))
	}
	if c.Inventory.LineThreshold <= 0 {
		errs = append(errs, fmt.Errorf("inventory.line_threshold must be positive, got %d", c.Inventory.LineThreshold))
	}
	if c.Selection.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("selection.batch_size must be positive, got %d", c.Selection.BatchSize))
	}

	return errors.Join(errs...)
}

// SameRepo reports whether the documentation lives in a subfolder of the source repository.
func (c *Config) SameRepo() bool {
	return c.Repository.DocsSubfolder != ""
}
