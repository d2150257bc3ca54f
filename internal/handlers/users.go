package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greensiliconvalley/portal/internal/middleware"
	"github.com/greensiliconvalley/portal/internal/services"
	"github.com/greensiliconvalley/portal/pkg/response"
)

// UserHandler exposes account administration endpoints.
type UserHandler struct {
	users *services.UserService
	audit *services.AuditService
}

func NewUserHandler(users *services.UserService, audit *services.AuditService) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

type createUserRequest struct {
	Username  string `json:"username" validate:"required,min=2,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" validate:"required,role"`
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Create(requestContext(c), services.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.audit != nil {
		actorID := middleware.UserID(c)
		_ = h.audit.Log(requestContext(c), services.AuditEntry{
			UserID:   &actorID,
			Action:   services.AuditActionUserCreate,
			Resource: "user/" + user.ID,
			Result:   services.AuditResultSuccess,
			Metadata: map[string]any{"role": user.Role},
		})
	}

	response.Success(c, http.StatusCreated, userPayload(user))
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := make([]gin.H, 0, len(users))
	for i := range users {
		payload = append(payload, userPayload(&users[i]))
	}

	response.Success(c, http.StatusOK, payload)
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// PUT /api/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.users.SetRole(requestContext(c), c.Param("id"), req.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
