package cli

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arnabmitra/topcap-index/internal/database"
)

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the index over HTTP. When INGEST_ENABLED is set, market data is
also refreshed and the index rebuilt every INGEST_INTERVAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Start(cmd.Context())
		},
	}
}

func newBuildCommand(e *env) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if end == "" {
				end = start
			}
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Service().Build(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %s days from %s to %s\n", humanize.Comma(int64(len(records))), start, end)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first date of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last date of the range, defaults to --start")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newIngestCommand(e *env) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch daily prices and market caps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = e.cfg.Ingest.LookbackDays
			}
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Ingestor().Run(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d of %d symbols, %s bars (%d skipped, %d failed)\n",
				summary.Stored, summary.Symbols, humanize.Comma(int64(summary.Bars)), summary.Skipped, summary.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "calendar days of history to fetch, defaults to INGEST_LOOKBACK_DAYS")
	return cmd
}

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.Database.Driver == "sqlite" {
				db, err := database.OpenSQLite(e.cfg.Database.SQLitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := database.MigrateSQLite(db); err != nil {
					return err
				}
			} else if err := database.Migrate(e.cfg.Database.URL); err != nil {
				return err
			}
			e.logger.Info("migrations applied", slog.String("driver", e.cfg.Database.Driver))
			return nil
		},
	}
}
