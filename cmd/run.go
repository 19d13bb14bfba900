package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/app"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/auth"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/backend"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/chat"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/config"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/observability"
)

// runApp loads config, builds the backend and session dependencies, and
// launches the TUI.
func runApp(cmd *cobra.Command) error {
	// A .env in the working directory feeds the WISNUS_* variables.
	_ = godotenv.Load()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := backend.NewClient(backend.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.Auth.Token,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}
	be := backend.WithRetry(client, backend.RetryConfig{
		MaxAttempts: cfg.API.Retry.MaxAttempts,
		InitialWait: cfg.API.Retry.InitialWait,
		MaxWait:     cfg.API.Retry.MaxWait,
		Multiplier:  cfg.API.Retry.Multiplier,
	})

	var profile *auth.Profile
	if cfg.Auth.RespondentName != "" {
		profile = &auth.Profile{Name: cfg.Auth.RespondentName}
	}
	provider := auth.New(cfg.Auth.Token, profile)

	orch := chat.New(chat.Options{
		Backend:           be,
		Auth:              provider,
		Logger:            logger,
		EngagementTimeout: cfg.Chat.EngagementTimeout,
	})
	defer orch.Close()

	logger.Info("starting session",
		zap.String("base_url", cfg.API.BaseURL),
		zap.Bool("has_profile", profile != nil))

	return app.Run(orch, cfg.Chat.ConfirmCountdown)
}

// resolveConfig loads from the --config flag path when set, otherwise
// from the default probe location.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return config.LoadFile(p)
	}
	return config.Load()
}
