package assistant

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/middleware"
	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
	chatService "github.com/tdcarpool/carpool/backend/internal/service/chat"
	"github.com/tdcarpool/carpool/backend/pkg/utils"
)

// Handler 助手组件的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	table   *intent.Table
}

// New 创建助手处理器
func New(chatSvc *chatService.Service, table *intent.Table) *Handler {
	return &Handler{chatSvc: chatSvc, table: table}
}

// RegisterRoutes 注册 /assistant 下的助手路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assistant", func(r chi.Router) {
		r.Get("/suggestions", h.handleSuggestions)
		r.Post("/sessions", h.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Post("/toggle", h.handleToggle)
			r.Post("/messages", h.handleSubmit)
			r.Get("/transcript", h.handleTranscript)
		})
	})
}

type sessionWithTranscript struct {
	Session    chat.Session   `json:"session"`
	Transcript []chat.Message `json:"transcript"`
}

type submitResponse struct {
	Accepted bool          `json:"accepted"`
	Message  *chat.Message `json:"message,omitempty"`
	State    chat.State    `json:"state,omitempty"`
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"suggestions": h.table.Suggestions()})
}

// handleCreateSession 创建会话，请求体未指定角色时使用请求头中的角色
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Page string `json:"page"`
		Role string `json:"role"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	who := middleware.RoleFrom(r.Context())
	if payload.Role != "" {
		who = role.Parse(payload.Role)
	}

	session, err := h.chatSvc.CreateSession(r.Context(), chat.CallerContext{Page: payload.Page, Role: who})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.Toggle(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	transcript, err := h.chatSvc.LoadTranscript(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionWithTranscript{Session: session, Transcript: transcript})
}

// handleSubmit 提交问题，不等待回复；被拒绝的输入返回 accepted=false 而不是错误
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pending, accepted, err := h.chatSvc.Submit(r.Context(), id, payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if !accepted {
		session, err := h.chatSvc.GetSession(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, submitResponse{Accepted: false, State: session.State})
		return
	}

	request := pending.Request()
	utils.RespondJSON(w, http.StatusAccepted, submitResponse{Accepted: true, Message: &request})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	transcript, err := h.chatSvc.LoadTranscript(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessionId": id, "messages": transcript})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrSessionDiscarded):
		utils.RespondError(w, http.StatusGone, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
