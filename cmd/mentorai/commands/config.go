package commands

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mentorlabs/mentorai/pkg/mentorai/config"
)

// newConfigCmd creates the `mentorai config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration and credentials",
	}
	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("output")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Store credentials with: mentorai config set-key openai")
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "mentorai.yaml", "output path")
	return cmd
}

// secretNames maps CLI names to keyring entries.
var secretNames = map[string]string{
	"openai": config.KeyOpenAI,
	"twilio": config.KeyTwilioToken,
	"pusher": config.KeyPusherSecret,
}

func secretChoices() string {
	names := make([]string, 0, len(secretNames))
	for name := range secretNames {
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [name]",
		Short: "Store a credential in the OS keyring",
		Long: `Store a provider credential in the OS keyring so it never has to
live in the config file. Known names: openai, twilio, pusher.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := secretNames[args[0]]
			if !ok {
				return fmt.Errorf("unknown credential %q (known: %s)", args[0], secretChoices())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Enter %s value (input hidden): ", args[0])
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("reading secret: %w", err)
			}
			value := strings.TrimSpace(string(raw))
			if value == "" {
				return fmt.Errorf("empty value, nothing stored")
			}

			if err := config.StoreKeyring(key, value); err != nil {
				return fmt.Errorf("storing in keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the OS keyring.\n", args[0])
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key [name]",
		Short: "Remove a credential from the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := secretNames[args[0]]
			if !ok {
				return fmt.Errorf("unknown credential %q (known: %s)", args[0], secretChoices())
			}
			if err := config.DeleteKeyring(key); err != nil {
				return fmt.Errorf("removing from keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the OS keyring.\n", args[0])
			return nil
		},
	}
}
