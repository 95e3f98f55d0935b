package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// newChatCmd creates the `mentorai chat` command: a one-shot message sent to
// a running daemon over the in-app chat endpoint.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message to a running MentorAI daemon",
		Long: `Send a single message through the in-app chat endpoint of a running
daemon and print the assistant's reply.

Examples:
  mentorai chat --user 3f2a... "what's on my plate today?"
  mentorai chat --user 3f2a... --address http://localhost:8090 "remind me to stretch in 20 minutes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().String("user", "", "user ID to chat as (required)")
	cmd.Flags().String("address", "http://localhost:8090", "base URL of the running daemon")
	cmd.Flags().String("token", "", "bearer token when the gateway requires auth")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	address, _ := cmd.Flags().GetString("address")
	token, _ := cmd.Flags().GetString("token")
	message := strings.Join(args, " ")

	payload, err := json.Marshal(map[string]string{
		"user_id": userID,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		strings.TrimRight(address, "/")+"/api/chat/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), parsed.Reply)
	return nil
}
