package api

import (
	"batepapo/domain"
	apperrors "batepapo/errors"
	"batepapo/services"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// userHeader carries the ambient caller identity. It is a bare string, not
// a verified credential.
const userHeader = "User"

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	presence services.IPresenceService
	messages services.IMessageService
	log      *slog.Logger
}

func NewHandler(presence services.IPresenceService, messages services.IMessageService, log *slog.Logger) *Handler {
	return &Handler{presence: presence, messages: messages, log: log}
}

type registerRequest struct {
	Name string `json:"name"`
}

type participantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

type messageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type messageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

// Register handles POST /participants.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if err := h.presence.Register(r.Context(), req.Name); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Participants handles GET /participants.
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.presence.ListAll(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return participantResponse{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()}
	}))
}

// Heartbeat handles POST /status.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.presence.Heartbeat(r.Context(), r.Header.Get(userHeader)); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SendMessage handles POST /messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	_, err := h.messages.Send(r.Context(), r.Header.Get(userHeader), domain.SendCommand{
		To:   req.To,
		Text: req.Text,
		Kind: domain.Kind(req.Type),
	})
	if err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ListMessages handles GET /messages?limit=.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.Error(w, http.StatusUnprocessableEntity, apperrors.ErrInvalidLimit.Error())
			return
		}
		limit = &parsed
	}
	visible, err := h.messages.ListVisible(r.Context(), r.Header.Get(userHeader), limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toMessageResponses(visible))
}

// SearchMessages handles GET /messages/search?q=.
func (h *Handler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	matches, err := h.messages.Search(r.Context(), r.Header.Get(userHeader), r.URL.Query().Get("q"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toMessageResponses(matches))
}

// EditMessage handles PUT /messages/{id}.
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	err := h.messages.Edit(r.Context(), chi.URLParam(r, "id"), r.Header.Get(userHeader), domain.SendCommand{
		To:   req.To,
		Text: req.Text,
		Kind: domain.Kind(req.Type),
	})
	if err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteMessage handles DELETE /messages/{id}.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Delete(r.Context(), chi.URLParam(r, "id"), r.Header.Get(userHeader)); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// serviceError maps the error taxonomy of the services to status codes.
// Anything outside the taxonomy is a store or infrastructure failure:
// logged, surfaced as a generic 500.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNameTaken):
		h.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrSenderNotLoggedIn),
		errors.Is(err, apperrors.ErrInvalidLimit):
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, apperrors.ErrNotLoggedIn),
		errors.Is(err, apperrors.ErrNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		h.Error(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error("Request failed", "error", err)
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return messageResponse{
			ID:   m.ID,
			From: m.From,
			To:   m.To,
			Text: m.Text,
			Type: string(m.Kind),
			Time: m.At.Format("15:04:05"),
		}
	})
}
