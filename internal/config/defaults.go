package config

import "time"

// Default configuration values.
const (
	DefaultPlanningModel  = "gemini-2.5-flash"
	DefaultExecutionModel = "gemini-2.5-pro"

	DefaultTemperature     = float32(0.2)
	DefaultMaxOutputTokens = int32(8192)

	// Retry settings
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 30 * time.Second

	// Loop thresholds
	DefaultMaxRounds          = 24
	DefaultPlanNudgeRound     = 3
	DefaultEditNudgeRound     = 5
	DefaultSearchStreakLimit  = 7
	DefaultFinalWarningMargin = 2
	DefaultEscalationRound    = 6

	// Tool limits
	DefaultViewMaxLines   = 400
	DefaultGrepMaxResults = 50
	DefaultSearchTopHits  = 5
)

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			ActiveProvider: "gemini",
			Retry: RetryConfig{
				MaxRetries: DefaultMaxRetries,
				RetryDelay: DefaultRetryDelay,
				MaxDelay:   DefaultMaxDelay,
			},
		},
		GitHub: GitHubConfig{
			Branch: "main",
		},
		Model: ModelConfig{
			Planning:        DefaultPlanningModel,
			Execution:       DefaultExecutionModel,
			Temperature:     DefaultTemperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
		},
		Loop: LoopConfig{
			MaxRounds:          DefaultMaxRounds,
			PlanNudgeRound:     DefaultPlanNudgeRound,
			EditNudgeRound:     DefaultEditNudgeRound,
			SearchStreakLimit:  DefaultSearchStreakLimit,
			FinalWarningMargin: DefaultFinalWarningMargin,
			EscalationRound:    DefaultEscalationRound,
		},
		Tools: ToolsConfig{
			ViewMaxLines:   DefaultViewMaxLines,
			GrepMaxResults: DefaultGrepMaxResults,
			SearchTopHits:  DefaultSearchTopHits,
		},
		Session: SessionConfig{
			AutoTitle: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
