package carpool

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tdcarpool/carpool/backend/internal/middleware"
	"github.com/tdcarpool/carpool/backend/internal/model/carpool"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
	"github.com/tdcarpool/carpool/backend/pkg/utils"
)

// Handler 行程搜索与管理面板的HTTP处理器
type Handler struct {
	store carpool.Store
}

// New 创建拼车处理器
func New(store carpool.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册行程路由和管理员路由，管理员分组依赖上游的 middleware.CallerRole
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/trips", h.handleSearchTrips)
	r.Post("/trips", h.handleCreateTrip)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(role.Admin))
		r.Get("/users", h.handleListUsers)
		r.Post("/users/{userID}/toggle-status", h.handleToggleUser)
		r.Delete("/trips/{tripID}", h.handleDeleteTrip)
		r.Get("/stats", h.handleStats)
	})
}

func (h *Handler) handleSearchTrips(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.SearchTrips(r.URL.Query().Get("q")))
}

func (h *Handler) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var draft carpool.TripDraft
	if err := utils.DecodeJSON(r, &draft); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trip, err := h.store.CreateTrip(draft)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, trip)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.ListUsers())
}

func (h *Handler) handleToggleUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.ToggleUserStatus(chi.URLParam(r, "userID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTrip(chi.URLParam(r, "tripID")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Stats())
}

func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, carpool.ErrInvalidTrip):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, carpool.ErrTripNotFound), errors.Is(err, carpool.ErrUserNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
