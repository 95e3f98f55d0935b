package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels/pusher"
	"github.com/mentorlabs/mentorai/pkg/mentorai/channels/twilio"
	"github.com/mentorlabs/mentorai/pkg/mentorai/chat"
	"github.com/mentorlabs/mentorai/pkg/mentorai/config"
	"github.com/mentorlabs/mentorai/pkg/mentorai/gateway"
	"github.com/mentorlabs/mentorai/pkg/mentorai/llm"
	"github.com/mentorlabs/mentorai/pkg/mentorai/poller"
	"github.com/mentorlabs/mentorai/pkg/mentorai/store"
)

// newServeCmd creates the `mentorai serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway and background poller",
		Long: `Start MentorAI as a daemon: the HTTP gateway (Twilio webhooks,
in-app chat and REST API) plus the reminder and inactivity poller.

Examples:
  mentorai serve
  mentorai serve --config ./mentorai.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// ── Configure logger ──
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger := config.NewLogger(cfg.Logging, os.Stdout)

	// ── Resolve secrets from the OS keyring ──
	config.ResolveSecrets(cfg, logger)
	if cfg.LLM.APIKey == "" {
		logger.Warn("no LLM API key configured — chat will fail until one is set (mentorai config set-key openai)")
	}

	// ── Open the store ──
	st, err := store.Open(store.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()
	logger.Info("database ready", "path", cfg.Database.Path)

	// ── LLM client and chat pipeline ──
	client := llm.New(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		RequestTimeout: cfg.LLM.RequestTimeout,
	}, logger)

	svc := chat.NewService(st, client, chat.Config{
		AssistantName:   cfg.Name,
		Model:           cfg.LLM.ChatModel,
		DefaultLocation: cfg.Location(),
	}, logger)

	// ── Outbound channels ──
	var dispatch gateway.Dispatchers
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		tcfg := twilio.Config{
			AccountSID:   cfg.Twilio.AccountSID,
			AuthToken:    cfg.Twilio.AuthToken,
			SMSFrom:      cfg.Twilio.SMSFrom,
			WhatsAppFrom: cfg.Twilio.WhatsAppFrom,
		}
		if cfg.Twilio.SMSFrom != "" {
			dispatch.SMS = twilio.NewSMS(tcfg, logger)
			logger.Info("SMS channel registered", "from", cfg.Twilio.SMSFrom)
		}
		if cfg.Twilio.WhatsAppFrom != "" {
			dispatch.WhatsApp = twilio.NewWhatsApp(tcfg, logger)
			logger.Info("WhatsApp channel registered", "from", cfg.Twilio.WhatsAppFrom)
		}
	}
	if cfg.Pusher.AppID != "" {
		dispatch.InApp = pusher.New(pusher.Config{
			AppID:   cfg.Pusher.AppID,
			Key:     cfg.Pusher.Key,
			Secret:  cfg.Pusher.Secret,
			Cluster: cfg.Pusher.Cluster,
		}, logger)
		logger.Info("in-app channel registered")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Start gateway ──
	gw := gateway.New(svc, st, cfg.Gateway, dispatch, logger)
	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}

	// ── Start poller ──
	var p *poller.Poller
	if cfg.Poller.Enabled {
		nudgeModel := cfg.LLM.NudgeModel
		if nudgeModel == "" {
			nudgeModel = cfg.LLM.ChatModel
		}
		p = poller.New(st, client, dispatch.InApp, poller.Config{
			AssistantName:       cfg.Name,
			Model:               nudgeModel,
			ReminderInterval:    cfg.Poller.ReminderInterval,
			InactivityInterval:  cfg.Poller.InactivityInterval,
			IdleThreshold:       cfg.Poller.IdleThreshold,
			MaxConcurrentNudges: cfg.Poller.MaxConcurrentNudges,
		}, logger)
		if err := p.Start(ctx); err != nil {
			logger.Error("failed to start poller", "error", err)
		} else {
			logger.Info("poller running",
				"reminder_interval", cfg.Poller.ReminderInterval.String(),
				"inactivity_interval", cfg.Poller.InactivityInterval.String(),
			)
		}
	}

	// ── Wait for shutdown ──
	logger.Info("MentorAI running. Press Ctrl+C to stop.",
		"name", cfg.Name,
		"address", cfg.Gateway.Address,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	// Graceful shutdown with timeout.
	done := make(chan struct{})
	go func() {
		if p != nil {
			p.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = gw.Stop(shutdownCtx)
		cancel()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out after 10s, forcing exit")
	}

	return nil
}
