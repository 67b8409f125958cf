package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mailmind/internal/config"
	"mailmind/internal/secrets"
)

// version is set via ldflags at build time.
var version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mailmind",
		Short:        "Email triage assistant",
		Long:         "Classifies inbox messages by intent, urgency and sentiment and drafts replies.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("mailmind %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newServeCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newKeyCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and falls back to the keyring for the AI key.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.ApplyKeyFallback(secrets.NewKeyringStore().LoadAIKey)
	return cfg, nil
}
