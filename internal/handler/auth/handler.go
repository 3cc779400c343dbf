package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tdcarpool/carpool/backend/internal/model/account"
	"github.com/tdcarpool/carpool/backend/pkg/utils"
)

// Handler 模拟登录的HTTP处理器，服务端不保存状态，客户端在后续请求中携带角色
type Handler struct{}

// New 创建登录处理器
func New() *Handler { return &Handler{} }

// RegisterRoutes 注册登录路由 POST /auth/signin
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signin", h.handleSignIn)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := account.SignIn(payload.Email)
	switch {
	case errors.Is(err, account.ErrEmailRequired), errors.Is(err, account.ErrInvalidEmailDomain):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, acct)
}
