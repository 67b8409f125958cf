package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mailmind/internal/logger"
	"mailmind/internal/model"
)

func newClassifyCmd() *cobra.Command {
	var (
		subject  string
		body     string
		bodyFile string
		sender   string
		useAI    bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single message and print the result as JSON",
		Example: `  mailmind classify --subject "Q3 report" --body "Please review by Friday"
  mailmind classify --subject "Hi" --body-file message.txt --ai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readBody(cmd, body, bodyFile)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			apiKey := ""
			if useAI {
				if !cfg.AIEnabled() {
					return fmt.Errorf("--ai needs AI_API_KEY or a key stored with 'mailmind key set': %w", model.ErrConfigMissing)
				}
				apiKey = cfg.AIAPIKey
			}

			appLogger := logger.NewWithWriter(cmd.ErrOrStderr()).SetLevel(logger.ParseLevel(cfg.LogLevel))
			classifier := newClassifier(cfg, apiKey, appLogger)

			msg := model.Message{
				ID:         "cli",
				SenderName: sender,
				Subject:    subject,
				Body:       text,
				ReceivedAt: time.Now(),
			}
			c, err := classifier.ProcessOne(cmd.Context(), msg)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&body, "body", "", "message body")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "read the body from a file (- for stdin)")
	cmd.Flags().StringVar(&sender, "sender", "", "sender display name")
	cmd.Flags().BoolVar(&useAI, "ai", false, "use the configured AI provider instead of the heuristics")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}

func readBody(cmd *cobra.Command, body, bodyFile string) (string, error) {
	switch bodyFile {
	case "":
		if body == "" {
			return "", fmt.Errorf("either --body or --body-file is required")
		}
		return body, nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read body file: %w", err)
		}
		return string(data), nil
	}
}
