package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mentorlabs/mentorai/pkg/mentorai/chat"
	"github.com/mentorlabs/mentorai/pkg/mentorai/interpret"
	"github.com/mentorlabs/mentorai/pkg/mentorai/phone"
	"github.com/mentorlabs/mentorai/pkg/mentorai/store"
)

// apologyReply is returned with HTTP 200 when the model is unreachable, so
// the frontend renders it like any other assistant turn.
const apologyReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."

// errorResponse is the consistent error format.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (g *Gateway) writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	var resp errorResponse
	resp.Error.Message = msg
	resp.Error.Code = code
	_ = json.NewEncoder(w).Encode(resp)
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (g *Gateway) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		g.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// parseWhen accepts an ISO timestamp or date. Returns nil for empty input.
func parseWhen(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, ok := interpret.ParseISO(s, time.UTC)
	if !ok {
		return nil, false
	}
	return &t, true
}

// handleHealth implements GET /health.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"started_at": g.startedAt.Format(time.RFC3339),
	})
}

// handleChatMessage implements POST /api/chat/messages, the in-app chat
// entry point. Model failures degrade to an apology with HTTP 200 so the
// frontend never shows a broken turn.
func (g *Gateway) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if !g.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Message == "" {
		g.writeError(w, "user_id and message are required", http.StatusBadRequest)
		return
	}
	if _, err := g.store.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.writeError(w, "user not found", http.StatusNotFound)
			return
		}
		g.writeError(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	turn, err := g.chat.HandleMessage(r.Context(), req.UserID, req.Message, "Chat")
	if err != nil {
		if errors.Is(err, chat.ErrLLM) {
			g.logger.Error("chat model failure", "user_id", req.UserID, "error", err)
			g.writeJSON(w, http.StatusOK, map[string]string{"reply": apologyReply})
			return
		}
		g.logger.Error("chat pipeline failed", "user_id", req.UserID, "error", err)
		g.writeError(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	if g.dispatch.InApp != nil {
		// Best effort realtime push; the reply is already in the response.
		_ = g.chat.Dispatch(r.Context(), g.dispatch.InApp, turn.UserID, turn.BotMessage)
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"reply": turn.Reply})
}

// --- users ---

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Timezone    string `json:"timezone"`
	CreatedAt   string `json:"created_at"`
}

func (g *Gateway) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Phone       string `json:"phone"`
		Timezone    string `json:"timezone"`
	}
	if !g.decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		g.writeError(w, "email is required", http.StatusBadRequest)
		return
	}
	user, err := g.store.CreateUser(r.Context(), req.Email, store.Profile{
		DisplayName:    req.DisplayName,
		Phone:          req.Phone,
		PhoneCanonical: phone.Canonical(req.Phone),
		Timezone:       req.Timezone,
	})
	if err != nil {
		g.writeError(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	g.writeJSON(w, http.StatusCreated, userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Timezone:    req.Timezone,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	})
}

func (g *Gateway) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := g.store.GetUser(r.Context(), id)
	if err != nil {
		g.notFoundOr500(w, err, "user not found")
		return
	}
	resp := userResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if profile, err := g.store.GetProfile(r.Context(), id); err == nil {
		resp.DisplayName = profile.DisplayName
		resp.Phone = profile.Phone
		resp.Timezone = profile.Timezone
	}
	g.writeJSON(w, http.StatusOK, resp)
}

// --- goals ---

type goalResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	LifeAreaID  string `json:"life_area_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func goalToResponse(goal store.Goal) goalResponse {
	resp := goalResponse{
		ID:          goal.ID,
		Title:       goal.Title,
		Description: goal.Description,
		LifeAreaID:  goal.LifeAreaID,
		CreatedAt:   goal.CreatedAt.Format(time.RFC3339),
	}
	if goal.DueDate != nil {
		resp.DueDate = goal.DueDate.Format(time.RFC3339)
	}
	return resp
}

func (g *Gateway) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := g.store.ListGoals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, "failed to list goals", http.StatusInternalServerError)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, goal := range goals {
		out = append(out, goalToResponse(goal))
	}
	g.writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
	}
	if !g.decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		g.writeError(w, "title is required", http.StatusBadRequest)
		return
	}
	due, ok := parseWhen(req.DueDate)
	if !ok {
		g.writeError(w, "due_date is not a valid timestamp", http.StatusBadRequest)
		return
	}
	goal, err := g.store.CreateGoal(r.Context(), store.Goal{
		UserID:      chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	})
	if err != nil {
		g.writeError(w, "failed to create goal", http.StatusInternalServerError)
		return
	}
	g.writeJSON(w, http.StatusCreated, goalToResponse(*goal))
}

func (g *Gateway) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		g.notFoundOr500(w, err, "goal not found")
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- journals ---

type journalResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Emoji     string `json:"emoji,omitempty"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (g *Gateway) handleListJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := g.store.ListJournals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, "failed to list journals", http.StatusInternalServerError)
		return
	}
	out := make([]journalResponse, 0, len(journals))
	for _, j := range journals {
		out = append(out, journalResponse{
			ID:        j.ID,
			Content:   j.Content,
			Emoji:     j.Emoji,
			Category:  j.Category,
			CreatedAt: j.CreatedAt.Format(time.RFC3339),
		})
	}
	g.writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		Emoji    string `json:"emoji"`
		Category string `json:"category"`
	}
	if !g.decode(w, r, &req) {
		return
	}
	if req.Content == "" {
		g.writeError(w, "content is required", http.StatusBadRequest)
		return
	}
	j, err := g.store.CreateJournal(r.Context(), store.Journal{
		UserID:   chi.URLParam(r, "id"),
		Content:  req.Content,
		Emoji:    req.Emoji,
		Category: req.Category,
	})
	if err != nil {
		g.writeError(w, "failed to create journal", http.StatusInternalServerError)
		return
	}
	g.writeJSON(w, http.StatusCreated, journalResponse{
		ID:        j.ID,
		Content:   j.Content,
		Emoji:     j.Emoji,
		Category:  j.Category,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
	})
}

func (g *Gateway) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteJournal(r.Context(), chi.URLParam(r, "id")); err != nil {
		g.notFoundOr500(w, err, "journal not found")
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- reminders ---

type reminderResponse struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	RemindAt    string `json:"remind_at,omitempty"`
	IsSent      bool   `json:"is_sent"`
	IsCompleted bool   `json:"is_completed"`
	CreatedAt   string `json:"created_at"`
}

func reminderToResponse(rem store.Reminder) reminderResponse {
	resp := reminderResponse{
		ID:          rem.ID,
		Message:     rem.Message,
		IsSent:      rem.IsSent,
		IsCompleted: rem.IsCompleted,
		CreatedAt:   rem.CreatedAt.Format(time.RFC3339),
	}
	if rem.RemindAt != nil {
		resp.RemindAt = rem.RemindAt.Format(time.RFC3339)
	}
	return resp
}

func (g *Gateway) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := g.store.ListReminders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}
	out := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, reminderToResponse(rem))
	}
	g.writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message  string `json:"message"`
		RemindAt string `json:"remind_at"`
	}
	if !g.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		g.writeError(w, "message is required", http.StatusBadRequest)
		return
	}
	at, ok := parseWhen(req.RemindAt)
	if !ok {
		g.writeError(w, "remind_at is not a valid timestamp", http.StatusBadRequest)
		return
	}
	rem, err := g.store.CreateReminder(r.Context(), chi.URLParam(r, "id"), req.Message, at)
	if err != nil {
		g.writeError(w, "failed to create reminder", http.StatusInternalServerError)
		return
	}
	g.writeJSON(w, http.StatusCreated, reminderToResponse(*rem))
}

func (g *Gateway) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := g.store.CompleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		g.notFoundOr500(w, err, "reminder not found")
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (g *Gateway) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		g.notFoundOr500(w, err, "reminder not found")
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- calendar events ---

type eventResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func eventToResponse(e store.CalendarEvent) eventResponse {
	resp := eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.StartTime != nil {
		resp.StartTime = e.StartTime.Format(time.RFC3339)
	}
	if e.EndTime != nil {
		resp.EndTime = e.EndTime.Format(time.RFC3339)
	}
	return resp
}

func (g *Gateway) handleListCalendarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := g.store.ListCalendarEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, "failed to list calendar events", http.StatusInternalServerError)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventToResponse(e))
	}
	g.writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleCreateCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
	}
	if !g.decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		g.writeError(w, "title is required", http.StatusBadRequest)
		return
	}
	start, ok := parseWhen(req.StartTime)
	if !ok {
		g.writeError(w, "start_time is not a valid timestamp", http.StatusBadRequest)
		return
	}
	end, ok := parseWhen(req.EndTime)
	if !ok {
		g.writeError(w, "end_time is not a valid timestamp", http.StatusBadRequest)
		return
	}
	if start != nil && end == nil {
		e := start.Add(time.Hour)
		end = &e
	}
	event, err := g.store.CreateCalendarEvent(r.Context(), store.CalendarEvent{
		UserID:      chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		g.writeError(w, "failed to create calendar event", http.StatusInternalServerError)
		return
	}
	g.writeJSON(w, http.StatusCreated, eventToResponse(*event))
}

func (g *Gateway) handleDeleteCalendarEvent(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteCalendarEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		g.notFoundOr500(w, err, "calendar event not found")
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- life areas ---

func (g *Gateway) handleListLifeAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := g.store.ListLifeAreas(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, "failed to list life areas", http.StatusInternalServerError)
		return
	}
	type areaResponse struct {
		ID    string           `json:"id"`
		Name  string           `json:"name"`
		Color string           `json:"color"`
		Items []map[string]any `json:"sub_goals"`
	}
	out := make([]areaResponse, 0, len(areas))
	for _, a := range areas {
		entry := areaResponse{ID: a.ID, Name: a.Name, Color: a.Color, Items: []map[string]any{}}
		subs, err := g.store.ListSubGoals(r.Context(), a.ID)
		if err != nil {
			g.writeError(w, "failed to list life areas", http.StatusInternalServerError)
			return
		}
		for _, sg := range subs {
			entry.Items = append(entry.Items, map[string]any{
				"id":         sg.ID,
				"name":       sg.Name,
				"created_at": sg.CreatedAt.Format(time.RFC3339),
			})
		}
		out = append(out, entry)
	}
	g.writeJSON(w, http.StatusOK, out)
}

// notFoundOr500 maps store.ErrNotFound to 404 and everything else to 500.
func (g *Gateway) notFoundOr500(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		g.writeError(w, msg, http.StatusNotFound)
		return
	}
	g.writeError(w, "internal error", http.StatusInternalServerError)
}
