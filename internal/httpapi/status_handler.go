package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/pager-receiver/internal/inbox"
	"github.com/example/pager-receiver/internal/logging"
)

// StatusHandler serves the read-only diagnostic view of the pager.
type StatusHandler struct {
	cache     *Cache
	responder responder
	logger    *slog.Logger
}

func NewStatusHandler(cache *Cache, logger *slog.Logger) *StatusHandler {
	base := defaultLogger(logger)
	return &StatusHandler{cache: cache, responder: newResponder(base), logger: base}
}

func (h *StatusHandler) log(ctx context.Context, operation string) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatusHandler", operation)
}

// Status reports the clock, inbox cursor and device flags.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.cache == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snap := h.cache.Get()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStatusDTO(snap))
}

// Inbox lists every stored message, oldest first.
func (h *StatusHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.cache == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snap := h.cache.Get()
	messages := make([]messageDTO, 0, len(snap.Messages))
	for _, msg := range snap.Messages {
		messages = append(messages, toMessageDTO(msg))
	}
	h.log(r.Context(), "Inbox").DebugContext(r.Context(), "inbox listed", "count", len(messages))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, inboxResponse{Messages: messages, Total: snap.Status.Total})
}

// Current returns the message under the view cursor.
func (h *StatusHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.cache == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snap := h.cache.Get()
	if !snap.HasCurrent {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errEmptyInbox)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, currentResponse{
		Message:  toMessageDTO(snap.Current),
		Position: snap.Status.Position,
		Total:    snap.Status.Total,
	})
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("handler", handlerName, "operation", operation)
}

type statusResponse struct {
	Clock           string `json:"clock,omitempty"`
	Date            string `json:"date,omitempty"`
	TimeSet         bool   `json:"time_set"`
	Position        int    `json:"position"`
	Total           int    `json:"total"`
	DisplayOn       bool   `json:"display_on"`
	StorageDegraded bool   `json:"storage_degraded"`
	ReminderPending bool   `json:"reminder_pending"`
}

type messageDTO struct {
	Address   uint32 `json:"address"`
	Label     string `json:"label"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp,omitempty"`
}

type inboxResponse struct {
	Messages []messageDTO `json:"messages"`
	Total    int          `json:"total"`
}

type currentResponse struct {
	Message  messageDTO `json:"message"`
	Position int        `json:"position"`
	Total    int        `json:"total"`
}

func toStatusDTO(snap Snapshot) statusResponse {
	resp := statusResponse{
		TimeSet:         snap.Status.Clock.Valid,
		Position:        snap.Status.Position,
		Total:           snap.Status.Total,
		DisplayOn:       snap.Status.DisplayOn,
		StorageDegraded: snap.Status.StorageDegraded,
		ReminderPending: snap.Status.ReminderPending,
	}
	if snap.Status.Clock.Valid {
		resp.Clock = snap.Status.Clock.ClockLabel()
		resp.Date = snap.Status.Clock.DateLabel()
	}
	return resp
}

func toMessageDTO(msg inbox.Message) messageDTO {
	dto := messageDTO{
		Address: msg.Address,
		Label:   msg.Label,
		Body:    msg.Body,
	}
	if msg.Timestamp.Valid {
		dto.Timestamp = msg.Timestamp.Compact()
	}
	return dto
}
