package gateway

import (
	"errors"
	"net/http"

	"github.com/mentorlabs/mentorai/pkg/mentorai/channels"
	"github.com/mentorlabs/mentorai/pkg/mentorai/chat"
)

// emptyTwiML is the acknowledgment Twilio expects. The actual reply goes out
// through the REST API, not the webhook response, so the body is always empty.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

func (g *Gateway) handleTwilioSMS(w http.ResponseWriter, r *http.Request) {
	g.handleTwilioInbound(w, r, "SMS", g.dispatch.SMS)
}

func (g *Gateway) handleTwilioWhatsApp(w http.ResponseWriter, r *http.Request) {
	g.handleTwilioInbound(w, r, "WhatsApp", g.dispatch.WhatsApp)
}

// handleTwilioInbound runs the chat pipeline for one Twilio webhook delivery.
// It always acknowledges with an empty TwiML document: pipeline failures must
// not make Twilio retry the same message, and unknown senders get no hint
// that the number reached anything.
func (g *Gateway) handleTwilioInbound(w http.ResponseWriter, r *http.Request, channel string, out channels.Dispatcher) {
	if err := r.ParseForm(); err != nil {
		g.writeTwiML(w)
		return
	}
	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" || body == "" {
		g.writeTwiML(w)
		return
	}

	user, err := g.chat.ResolveSender(r.Context(), from)
	if err != nil {
		if !errors.Is(err, chat.ErrNoProfile) {
			g.logger.Error("webhook sender lookup failed", "channel", channel, "error", err)
		}
		g.writeTwiML(w)
		return
	}

	turn, err := g.chat.HandleMessage(r.Context(), user.ID, body, channel)
	if err != nil {
		g.logger.Error("webhook pipeline failed", "channel", channel, "user_id", user.ID, "error", err)
		g.writeTwiML(w)
		return
	}

	if out != nil {
		// Reply to the raw From value so the whatsapp: prefix survives.
		_ = g.chat.Dispatch(r.Context(), out, from, turn.BotMessage)
	}
	g.writeTwiML(w)
}

func (g *Gateway) writeTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}
