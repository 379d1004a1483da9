package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vbonduro/pantrychef/internal/config"
	"github.com/vbonduro/pantrychef/internal/logging"
	"github.com/vbonduro/pantrychef/internal/vectorstore"
)

func newLoadCommand() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load reference recipes from a CSV file into the collection",
		Long: "Reads a CSV with the columns id, title, cuisine, ingredients, steps, " +
			"servings and tags, embeds every recipe and upserts it by id.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.ValidateStore(); err != nil {
				return err
			}

			logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open recipes file: %w", err)
			}
			defer closeWithLog(f, "recipes file", logger)

			records, err := vectorstore.ReadRecords(f)
			if err != nil {
				return err
			}

			collection, closeCollection, err := openCollection(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeCollection()

			n, err := collection.Load(cmd.Context(), records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d recipes from %s\n", n, csvPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the reference recipes CSV")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
