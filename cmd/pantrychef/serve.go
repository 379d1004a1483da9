package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/pantrychef/internal/config"
	"github.com/vbonduro/pantrychef/internal/logging"
	"github.com/vbonduro/pantrychef/internal/service"
	"github.com/vbonduro/pantrychef/internal/web"
	"github.com/vbonduro/pantrychef/internal/web/templates"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := config.Load()
			if addr != "" {
				cfg.ListenAddr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
			if err != nil {
				return err
			}
			defer cleanup()

			collection, closeCollection, err := openCollection(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeCollection()

			n, err := collection.Count(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				logger.Warn("reference collection is empty; run 'pantrychef load' to add recipes")
			} else {
				logger.Info("reference collection ready", "recipes", n)
			}

			generator, closeGenerator, err := newGenerator(ctx, cfg, collection, logger)
			if err != nil {
				return err
			}
			defer closeGenerator()

			detector, err := newDetector(ctx, cfg, logger)
			if err != nil {
				return err
			}

			svc := service.NewRecipeService(
				detector,
				generator,
				detectorModelName(cfg),
				service.Thresholds{Detection: cfg.DetectorThreshold, Confirm: cfg.ConfirmThreshold},
				logger,
			)
			server := web.NewServer(svc, templates.FS, cfg.CORSAllowOrigin, logger)
			return server.ListenAndServe(ctx, cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LISTEN_ADDR)")
	return cmd
}
