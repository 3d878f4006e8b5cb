package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gitchat/internal/app"
	"gitchat/internal/client"
	"gitchat/internal/config"
	"gitchat/internal/github"
	"gitchat/internal/logging"
	"gitchat/internal/repo"
	"gitchat/internal/session"
	"gitchat/internal/store"
	"gitchat/internal/tools"
)

var (
	version     = "0.1.0"
	cfgRepo     string
	cfgBranch   string
	cfgProvider string
	allowLocal  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gitchat",
		Short: "Chat with an AI agent that works on a GitHub repository",
		Long: `Gitchat is a chat CLI whose agent reads, searches, and edits a remote
GitHub repository through the GitHub API. Edits are staged locally and
pushed as single atomic commits.`,
		RunE: runApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgRepo, "repo", "", "repository to work on (owner/name)")
	rootCmd.PersistentFlags().StringVar(&cfgBranch, "branch", "", "branch to work on (default main)")
	rootCmd.PersistentFlags().StringVar(&cfgProvider, "provider", "", "model provider: gemini or deepseek")
	rootCmd.PersistentFlags().BoolVar(&allowLocal, "allow-run-command", false, "enable the local run_command tool")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gitchat version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version
	if cfgRepo != "" {
		cfg.GitHub.Repo = cfgRepo
	}
	if cfgBranch != "" {
		cfg.GitHub.Branch = cfgBranch
	}
	if cfgProvider != "" {
		cfg.API.ActiveProvider = cfgProvider
	}
	if allowLocal {
		cfg.Tools.AllowRunCommand = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Logging.File {
		if err := logging.EnableFileLogging(config.ConfigDir(), logging.Level(cfg.Logging.Level)); err != nil {
			return fmt.Errorf("failed to enable logging: %w", err)
		}
		defer logging.Close()
	}
	logging.Info("starting", "version", version, "repo", cfg.GitHub.Repo, "branch", cfg.GitHub.Branch)

	modelClient, err := buildClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer modelClient.Close()
	modelClient.SetSystemInstruction(app.SystemPrompt)

	var gwOpts []github.Option
	if cfg.GitHub.APIURL != "" {
		gwOpts = append(gwOpts, github.WithAPIURL(cfg.GitHub.APIURL))
	}
	gateway := github.New(cfg.GitHub.Repo, cfg.GitHub.Branch, cfg.GitHub.Token, gwOpts...)
	workspace := repo.NewWorkspace(gateway)
	registry := tools.DefaultRegistry(workspace, gateway, cfg.Tools)

	dbPath := cfg.Session.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(config.ConfigDir(), "gitchat.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	a := app.New(cfg)
	manager := session.NewManager(cfg, modelClient, registry, st, a)
	a.Wire(manager)

	return a.Run()
}

func buildClient(ctx context.Context, cfg *config.Config) (client.Client, error) {
	retry := client.RetryConfig{
		MaxRetries: cfg.API.Retry.MaxRetries,
		RetryDelay: cfg.API.Retry.RetryDelay,
		MaxDelay:   cfg.API.Retry.MaxDelay,
	}

	switch cfg.API.ActiveProvider {
	case "deepseek":
		if cfg.API.DeepSeekKey == "" {
			return nil, fmt.Errorf("provider deepseek selected but no DeepSeek API key configured")
		}
		return client.NewOpenAIClient(client.OpenAIOptions{
			APIKey:          cfg.API.DeepSeekKey,
			Model:           "deepseek-chat",
			Temperature:     cfg.Model.Temperature,
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
			Retry:           retry,
		})
	default:
		if cfg.API.GeminiKey == "" {
			return nil, fmt.Errorf("provider gemini selected but no Gemini API key configured")
		}
		return client.NewGeminiClient(ctx, client.GeminiOptions{
			APIKey:          cfg.API.GeminiKey,
			Model:           cfg.Model.Planning,
			Temperature:     cfg.Model.Temperature,
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
			Retry:           retry,
		})
	}
}
