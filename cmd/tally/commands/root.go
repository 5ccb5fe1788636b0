package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/config"
)

type globalFlags struct {
	configPath string
	envFile    string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "tally",
		Short: "tally - canonical tracker reconciliation",
		Long: `tally keeps one canonical tracker record current by asking a language
model for high-confidence updates from recent reporting, and classifies single
articles against typed extraction schemas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to config TOML (default $CONFIG_PATH or config/config.toml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(flags),
		newReconcileCmd(flags),
		newClassifyCmd(flags),
		newSeedCmd(flags),
		newWatchCmd(flags),
	)
	return root
}

// Execute runs the CLI until completion or an interrupt.
func Execute(version, commit, date string) error {
	root := NewRootCmd()
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func (f *globalFlags) setup() (*config.Config, *zap.Logger, error) {
	if f.envFile != "" {
		// A missing dotenv file is normal outside development.
		_ = godotenv.Load(f.envFile)
	}

	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return nil, nil, err
	}

	var logger *zap.Logger
	if f.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
