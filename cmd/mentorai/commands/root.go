// Package commands implements the MentorAI CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mentorai",
		Short: "MentorAI - personal mentoring chat backend",
		Long: `MentorAI is a chat backend for a personal mentoring assistant.
It receives messages over SMS, WhatsApp and in-app chat, answers through an
OpenAI-compatible model, and turns structured replies into reminders, goals,
journal entries and calendar events.

Examples:
  mentorai serve
  mentorai serve --config ./mentorai.yaml
  mentorai chat --user <user-id> "remind me to stretch in 20 minutes"
  mentorai config init`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newConfigCmd(),
	)

	// Global flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
