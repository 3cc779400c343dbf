package stream

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	chatService "github.com/tdcarpool/carpool/backend/internal/service/chat"
	"github.com/tdcarpool/carpool/backend/pkg/utils"
)

// Handler streams a single question/answer exchange over Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
	log     zerolog.Logger
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, logger zerolog.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, log: logger}
}

// StreamResponse is the data payload of every SSE event.
type StreamResponse struct {
	Event     string        `json:"event"`
	SessionID string        `json:"sessionId"`
	Message   *chat.Message `json:"message,omitempty"`
	State     chat.State    `json:"state,omitempty"`
	Finished  bool          `json:"finished,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// RegisterRoutes mounts GET /stream/{sessionID}?message=.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// handleStream submits the question, then holds the stream open until the
// reply lands: start (user message), message (assistant reply), end.
// Rejected input produces a single rejected event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	text := r.URL.Query().Get("message")
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	pending, accepted, err := h.chatSvc.Submit(ctx, sessionID, text)
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if !accepted {
		var state chat.State
		if session, err := h.chatSvc.GetSession(ctx, sessionID); err == nil {
			state = session.State
		}
		h.send(w, flusher, StreamResponse{Event: "rejected", SessionID: sessionID, State: state})
		return
	}

	request := pending.Request()
	h.send(w, flusher, StreamResponse{Event: "start", SessionID: sessionID, Message: &request})

	reply, err := pending.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			h.log.Debug().Str("session", sessionID).Msg("[stream] client went away before reply")
			return
		}
		h.send(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
		return
	}

	h.send(w, flusher, StreamResponse{Event: "message", SessionID: sessionID, Message: &reply})
	h.send(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, resp StreamResponse) {
	if err := utils.SendSSEEvent(w, flusher, resp.Event, resp); err != nil {
		h.log.Warn().Err(err).Str("session", resp.SessionID).Str("event", resp.Event).Msg("[stream] write failed")
	}
}
