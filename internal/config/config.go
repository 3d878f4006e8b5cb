package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingAuth is returned by Validate when no model API key is configured.
var ErrMissingAuth = errors.New("no API key configured")

// Config represents the main application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	GitHub  GitHubConfig  `yaml:"github"`
	Model   ModelConfig   `yaml:"model"`
	Loop    LoopConfig    `yaml:"loop"`
	Tools   ToolsConfig   `yaml:"tools"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// APIConfig holds model provider credentials and retry settings.
type APIConfig struct {
	GeminiKey   string `yaml:"gemini_key,omitempty"`
	DeepSeekKey string `yaml:"deepseek_key,omitempty"`

	// Active provider: gemini or deepseek (default: gemini)
	ActiveProvider string `yaml:"active_provider"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig controls backoff for transient provider failures.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// GitHubConfig identifies the remote repository the agent operates on.
type GitHubConfig struct {
	Token  string `yaml:"token,omitempty"`
	Repo   string `yaml:"repo"`   // owner/name
	Branch string `yaml:"branch"` // default: main
	APIURL string `yaml:"api_url,omitempty"`
}

// ModelConfig holds model selection and generation settings.
type ModelConfig struct {
	// Planning is the cheap/fast model every turn starts on.
	Planning string `yaml:"planning"`
	// Execution is the stronger model the turn escalates to.
	Execution string `yaml:"execution"`

	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// LoopConfig holds the round thresholds for the turn loop.
type LoopConfig struct {
	// MaxRounds is the absolute round ceiling per turn.
	MaxRounds int `yaml:"max_rounds"`
	// PlanNudgeRound is the round at which the model is asked to state a plan.
	PlanNudgeRound int `yaml:"plan_nudge_round"`
	// EditNudgeRound is the round at which the model is told to stop
	// searching and attempt an edit.
	EditNudgeRound int `yaml:"edit_nudge_round"`
	// SearchStreakLimit hard-blocks read-only calls after this many
	// consecutive search-only rounds with zero edits.
	SearchStreakLimit int `yaml:"search_streak_limit"`
	// FinalWarningMargin emits a last warning this many rounds before the ceiling.
	FinalWarningMargin int `yaml:"final_warning_margin"`
	// EscalationRound upgrades the model tier at this round even without an edit.
	EscalationRound int `yaml:"escalation_round"`
}

// ToolsConfig holds per-tool settings.
type ToolsConfig struct {
	// ViewMaxLines caps the number of lines view_file returns.
	ViewMaxLines int `yaml:"view_max_lines"`
	// GrepMaxResults caps grep_search matches per call.
	GrepMaxResults int `yaml:"grep_max_results"`
	// SearchTopHits is how many search_code hits get grepped for exact lines.
	SearchTopHits int `yaml:"search_top_hits"`
	// AllowRunCommand enables the local run_command tool. Off by default.
	AllowRunCommand bool `yaml:"allow_run_command"`
	// RunCommandDir is the working directory for run_command.
	RunCommandDir string `yaml:"run_command_dir,omitempty"`
}

// SessionConfig holds conversation persistence settings.
type SessionConfig struct {
	// DBPath is the sqlite database file. Empty means <config dir>/gitchat.db.
	DBPath string `yaml:"db_path,omitempty"`
	// AutoTitle generates a conversation title after the first exchange.
	AutoTitle bool `yaml:"auto_title"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level Level `yaml:"level"`
	File  bool  `yaml:"file"`
}

// Level mirrors logging.Level without importing it (avoids a cycle
// when logging reads config).
type Level string

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	if c.API.GeminiKey == "" && c.API.DeepSeekKey == "" {
		return ErrMissingAuth
	}
	if c.GitHub.Repo == "" {
		return errors.New("github.repo is required (owner/name)")
	}
	if c.GitHub.Token == "" {
		return errors.New("github.token is required")
	}
	if c.Loop.MaxRounds < 1 {
		return fmt.Errorf("loop.max_rounds must be positive, got %d", c.Loop.MaxRounds)
	}
	if c.Loop.SearchStreakLimit < c.Loop.EditNudgeRound {
		return fmt.Errorf("loop.search_streak_limit (%d) must not be below loop.edit_nudge_round (%d)",
			c.Loop.SearchStreakLimit, c.Loop.EditNudgeRound)
	}
	return nil
}
