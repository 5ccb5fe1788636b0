package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/tally/internal/app"
)

func newClassifyCmd(flags *globalFlags) *cobra.Command {
	var schemaName, file string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one article against a named schema",
		Example: `  tally classify --type promise --file article.txt
  curl -s https://example.com/story | tally classify --type iceIncident --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := readArticle(cmd, file)
			if err != nil {
				return err
			}

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

			ctx, cancel := withTimeout(cmd.Context(), cfg.Classify.TimeoutSeconds)
			defer cancel()

			result, err := a.Classifier.Classify(ctx, schemaName, article)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&schemaName, "type", "t", "", "schema name (promise, iceIncident, conflict)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "article text file, or - for stdin")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readArticle(cmd *cobra.Command, file string) (string, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read article: %w", err)
	}
	return string(data), nil
}
