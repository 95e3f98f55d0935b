// Package gateway exposes MentorAI over HTTP: Twilio inbound webhooks, the
// in-app chat endpoint and a small REST API for the companion frontend.
package gateway

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
	"github.com/mentorlabs/mentorai/pkg/mentorai/chat"
	"github.com/mentorlabs/mentorai/pkg/mentorai/config"
	"github.com/mentorlabs/mentorai/pkg/mentorai/store"
)

// Dispatchers holds the outbound channels the gateway replies over. Any of
// them may be nil when the channel is not configured.
type Dispatchers struct {
	SMS      channels.Dispatcher
	WhatsApp channels.Dispatcher
	InApp    channels.Dispatcher
}

// Gateway is the HTTP front door.
type Gateway struct {
	chat      *chat.Service
	store     *store.Store
	cfg       config.GatewayConfig
	dispatch  Dispatchers
	server    *http.Server
	logger    *slog.Logger
	startedAt time.Time
}

// New creates a new Gateway.
func New(svc *chat.Service, st *store.Store, cfg config.GatewayConfig, dispatch Dispatchers, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Address == "" {
		cfg.Address = ":8090"
	}
	return &Gateway{
		chat:     svc,
		store:    st,
		cfg:      cfg,
		dispatch: dispatch,
		logger:   logger.With("component", "gateway"),
	}
}

// Router builds the HTTP handler. Exposed separately so tests can drive it
// without binding a port.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()

	// Health is always public.
	r.Get("/health", g.handleHealth)

	// Twilio signs requests instead of sending auth headers, so webhooks
	// sit outside the bearer-token wall.
	r.Route("/webhooks/twilio", func(r chi.Router) {
		r.Post("/sms", g.handleTwilioSMS)
		r.Post("/whatsapp", g.handleTwilioWhatsApp)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(g.authMiddleware)

		r.Post("/chat/messages", g.handleChatMessage)

		r.Post("/users", g.handleCreateUser)
		r.Get("/users/{id}", g.handleGetUser)

		r.Route("/users/{id}/goals", func(r chi.Router) {
			r.Get("/", g.handleListGoals)
			r.Post("/", g.handleCreateGoal)
		})
		r.Delete("/goals/{id}", g.handleDeleteGoal)

		r.Route("/users/{id}/journals", func(r chi.Router) {
			r.Get("/", g.handleListJournals)
			r.Post("/", g.handleCreateJournal)
		})
		r.Delete("/journals/{id}", g.handleDeleteJournal)

		r.Route("/users/{id}/reminders", func(r chi.Router) {
			r.Get("/", g.handleListReminders)
			r.Post("/", g.handleCreateReminder)
		})
		r.Patch("/reminders/{id}/complete", g.handleCompleteReminder)
		r.Delete("/reminders/{id}", g.handleDeleteReminder)

		r.Route("/users/{id}/calendar-events", func(r chi.Router) {
			r.Get("/", g.handleListCalendarEvents)
			r.Post("/", g.handleCreateCalendarEvent)
		})
		r.Delete("/calendar-events/{id}", g.handleDeleteCalendarEvent)

		r.Get("/users/{id}/life-areas", g.handleListLifeAreas)
	})

	return g.securityHeadersMiddleware(g.corsMiddleware(r))
}

// Start starts the HTTP server.
func (g *Gateway) Start(ctx context.Context) error {
	g.startedAt = time.Now()
	g.server = &http.Server{
		Addr:    g.cfg.Address,
		Handler: g.Router(),
	}

	// Warn when the gateway has no auth token and is bound to a non-loopback
	// address.
	if g.cfg.AuthToken == "" {
		host, _, _ := net.SplitHostPort(g.cfg.Address)
		if host == "" {
			host = "0.0.0.0"
		}
		ip := net.ParseIP(host)
		isLoopback := ip != nil && ip.IsLoopback()
		if !isLoopback && host != "localhost" {
			g.logger.Warn("SECURITY: gateway has no auth token and is bound to a non-loopback address — anyone on the network can access the API",
				"address", g.cfg.Address)
		}
	}

	go func() {
		if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			g.logger.Error("gateway server error", "error", err)
		}
	}()
	g.logger.Info("gateway started", "address", g.cfg.Address)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	g.logger.Info("gateway stopping...")
	return g.server.Shutdown(ctx)
}

// securityHeadersMiddleware adds standard security headers to all responses.
func (g *Gateway) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers when origins are configured.
func (g *Gateway) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(g.cfg.CORSOrigins) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		origin := r.Header.Get("Origin")
		allowed := false
		for _, o := range g.cfg.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}
		if allowed {
			if origin == "" || origin == "*" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
