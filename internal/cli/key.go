package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mailmind/internal/config"
	"mailmind/internal/secrets"
)

func newKeyCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the AI provider key stored in the OS keyring",
	}
	cmd.PersistentFlags().StringVar(&provider, "provider", "", "AI provider (defaults to AI_PROVIDER)")

	resolveProvider := func() (string, error) {
		if provider != "" {
			return strings.ToLower(provider), nil
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			return "", err
		}
		return cfg.AIProvider, nil
	}

	setCmd := &cobra.Command{
		Use:   "set [key]",
		Short: "Store a key; reads one line from stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProvider()
			if err != nil {
				return err
			}

			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read key: %w", err)
				}
				key = line
			}

			if err := secrets.NewKeyringStore().SaveAIKey(p, strings.TrimSpace(key)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s key in the keyring.\n", p)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProvider()
			if err != nil {
				return err
			}

			err = secrets.NewKeyringStore().DeleteAIKey(p)
			if errors.Is(err, secrets.ErrKeyNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s key stored.\n", p)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s key.\n", p)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show whether a key is stored, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProvider()
			if err != nil {
				return err
			}

			key, err := secrets.NewKeyringStore().LoadAIKey(p)
			if errors.Is(err, secrets.ErrKeyNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s key stored.\n", p)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p, mask(key))
			return nil
		},
	}

	cmd.AddCommand(setCmd, deleteCmd, showCmd)
	return cmd
}

// mask keeps the last four characters.
func mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
