package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/tally/internal/seed"
	"github.com/agenthands/tally/internal/store"
)

func newSeedCmd(flags *globalFlags) *cobra.Command {
	var file string
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the tracker record from a JSON or YAML snapshot",
		Long: `Creates the canonical tracker from a seed snapshot. An existing record is
left untouched unless --force is given, which replaces it wholesale.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			rec, err := seed.Load(file)
			if err != nil {
				return err
			}

			s, err := store.Open(cmd.Context(), cfg.Store, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := seed.Apply(cmd.Context(), s, cfg.Store.RecordID, rec, force, logger)
			if errors.Is(err, seed.ErrAlreadySeeded) {
				fmt.Fprintf(cmd.OutOrStdout(), "tracker %q already exists, use --force to replace it\n", cfg.Store.RecordID)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded tracker %q at version %d\n", snap.ID, snap.Version)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed snapshot (.json, .yaml or .yml)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing record")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
