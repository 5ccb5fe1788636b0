package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/tally/internal/app"
)

func newReconcileCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation cycle and print its result",
		Long: `Runs a single reconciliation cycle against the configured store and model.
A gated or unparseable cycle still exits zero; read, extraction and commit
failures exit non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.ConfigErr != nil {
				return a.ConfigErr
			}

			ctx, cancel := withTimeout(cmd.Context(), cfg.Reconcile.TimeoutSeconds)
			defer cancel()

			result, err := a.Engine.Reconcile(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withTimeout bounds ctx by seconds; zero or less means no deadline.
func withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}
