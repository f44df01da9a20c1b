// Package cli defines the topcap command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arnabmitra/topcap-index/internal/app"
	"github.com/arnabmitra/topcap-index/internal/config"
)

type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

// open initialises an App from the loaded config. The caller closes it.
func (e *env) open(ctx context.Context) (*app.App, error) {
	a := app.New(e.cfg, e.logger)
	if err := a.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "topcap",
		Short: "Equal-weighted top market cap index",
		Long: `topcap builds an equal-weighted index of the largest stocks by market
capitalization, one business day at a time, and serves its performance,
daily composition and membership changes.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			e.cfg = cfg
			e.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(e),
		newBuildCommand(e),
		newIngestCommand(e),
		newMigrateCommand(e),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
