package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/greensiliconvalley/portal/internal/auth"
	"github.com/greensiliconvalley/portal/internal/middleware"
	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/internal/services"
	"github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/metrics"
	"github.com/greensiliconvalley/portal/pkg/response"
)

// AuthHandler manages authentication flows (login/me).
type AuthHandler struct {
	db    *gorm.DB
	jwt   *iauth.JWTService
	users *services.UserService
	audit *services.AuditService
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, users *services.UserService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, users: users, audit: audit}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	user, err := h.users.Authenticate(requestContext(c), req.Username, req.Password)
	if err != nil {
		// Normalise auth errors to 401
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.logAudit(c, nil, req.Username, services.AuditResultFailure)
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.logAudit(c, &user.ID, user.Username, services.AuditResultSuccess)

	payload := gin.H{
		"tokens": tokenResponse{AccessToken: token},
		"user":   userPayload(user),
	}

	response.Success(c, http.StatusOK, payload)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, userPayload(user))
}

func (h *AuthHandler) logAudit(c *gin.Context, userID *string, username, result string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), services.AuditEntry{
		UserID:    userID,
		Username:  username,
		Action:    services.AuditActionLogin,
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"is_active":  user.IsActive,
	}
}
