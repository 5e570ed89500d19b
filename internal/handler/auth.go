package handler

import (
	"net/http"

	"echo-diary/internal/logger"
	"echo-diary/internal/middleware"
	"echo-diary/internal/model"
	"echo-diary/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ auth *service.AuthService }

func NewAuthHandler(auth *service.AuthService) *AuthHandler { return &AuthHandler{auth: auth} }

func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	u, err := h.auth.Signup(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warn("auth.signup.failed", "username", req.Username, "err", err)
		writeError(c, err)
		return
	}

	logger.Info("auth.signup.ok", "uid", u.ID, "username", u.Username)
	c.JSON(http.StatusOK, model.NewUserView(u))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	u, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warn("auth.login.failed", "username", req.Username)
		writeError(c, err)
		return
	}

	token, err := h.auth.IssueToken(u)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Info("auth.login.ok", "uid", u.ID, "username", u.Username)
	c.JSON(http.StatusOK, model.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        u.Role,
		Username:    u.Username,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, model.NewUserView(middleware.CurrentUser(c)))
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]model.UserView, 0, len(users))
	for i := range users {
		views = append(views, model.NewUserView(&users[i]))
	}
	c.JSON(http.StatusOK, views)
}
