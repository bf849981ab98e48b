package main

import (
	"time"

	"github.com/drewdunne/copilint/internal/event"
	"github.com/drewdunne/copilint/internal/handler"
	"github.com/drewdunne/copilint/internal/logging"
	"github.com/drewdunne/copilint/internal/registry"
	"github.com/drewdunne/copilint/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cleanupInterval is how often archived reports are checked for expiry.
const cleanupInterval = time.Hour

func (a *app) serveCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: `Start an HTTP server that validates repositories on GitHub and GitLab
webhooks (push, merge request opened or updated, and @copilint mentions)
and reports through commit statuses and merge request comments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Env files first: the config refers to ${VAR}s.
			envErr := loadEnv(envFile)
			if err := a.setup(cmd, false); err != nil {
				return err
			}
			if envErr != nil {
				a.logger.Warn("could not load env file", zap.String("path", envFile), zap.Error(envErr))
			}
			cfg := a.cfg

			reg := registry.New(cfg)
			if len(reg.List()) == 0 {
				a.logger.Warn("no provider tokens configured; webhooks cannot be answered")
			}

			opts := []handler.Option{
				handler.WithStatusContext(cfg.Report.StatusContext),
				handler.WithLogger(a.logger),
			}
			if cfg.Logging.Dir != "" {
				opts = append(opts, handler.WithArchive(logging.NewWriter(cfg.Logging.Dir)))
				if cfg.Logging.RetentionDays > 0 {
					cleaner := logging.NewCleaner(cfg.Logging.Dir, cfg.Logging.RetentionDays)
					scheduler := logging.NewCleanupScheduler(cleaner, cleanupInterval, a.logger)
					scheduler.Start()
					defer scheduler.Stop()
				}
			}

			h := handler.NewValidationHandler(reg, opts...)
			router := event.NewRouter(cfg, h.Handle, a.logger)
			srv := server.New(cfg, router, a.logger)

			a.logger.Info("starting copilint server",
				zap.String("version", version),
				zap.Strings("providers", reg.List()))
			return srv.ListenAndServeWithShutdown()
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env and /etc/copilint/copilint.env if present)")
	return cmd
}

// loadEnv loads envFile, or the default locations when it is empty. Missing
// default files are not an error.
func loadEnv(envFile string) error {
	if envFile != "" {
		return godotenv.Load(envFile)
	}
	_ = godotenv.Load(".env")
	_ = godotenv.Load("/etc/copilint/copilint.env")
	return nil
}
