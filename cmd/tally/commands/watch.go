package commands

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/notify"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print each committed tracker snapshot as a JSON line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Notify.RedisAddr == "" {
				return fmt.Errorf("notify.redis_addr is not configured")
			}

			client, err := notify.NewClient(&redis.Options{
				Addr:     cfg.Notify.RedisAddr,
				Password: cfg.Notify.RedisPassword,
				DB:       cfg.Notify.RedisDB,
			}, cfg.Notify.Channel)
			if err != nil {
				return err
			}
			defer client.Close()

			sub, err := client.Subscribe(cmd.Context())
			if err != nil {
				return err
			}
			defer sub.Close()

			logger.Info("watching tracker events", zap.String("channel", cfg.Notify.Channel))

			enc := json.NewEncoder(cmd.OutOrStdout())
			errs := sub.Errors()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case snap, ok := <-sub.Events():
					if !ok {
						return nil
					}
					if err := enc.Encode(snap); err != nil {
						return err
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					logger.Warn("dropped tracker event", zap.Error(err))
				}
			}
		},
	}
}
