package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/config"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/observability"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/selfupdate"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update wisnus to the latest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := []selfupdate.Option{selfupdate.WithTimeout(2 * time.Minute)}

		// Stage diagnostics go to the configured log file when one is set.
		if cfg, err := config.Load(); err == nil && cfg.Log.File != "" {
			if logger, err := observability.NewLogger(cfg.Log.File, cfg.Log.Level); err == nil {
				defer func() { _ = logger.Sync() }()
				opts = append(opts, selfupdate.WithLogger(logger))
			}
		}
		checker := selfupdate.NewChecker(opts...)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		err := checker.Update(ctx, &selfupdate.UpdateInput{
			CurrentVersion: version,
		}, func(p selfupdate.UpdateProgress) {
			fmt.Println(p.Message)
		})

		if err == nil {
			return nil
		}

		if errors.Is(err, selfupdate.ErrDevBuild) {
			fmt.Println("Cannot update a development build. Install a release build first.")
			return nil
		}
		if errors.Is(err, selfupdate.ErrAlreadyLatest) {
			fmt.Println("Already running the latest version.")
			return nil
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w\n\nTry running: sudo wisnus update", err)
		}

		return err
	},
}
