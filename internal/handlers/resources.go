package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greensiliconvalley/portal/internal/middleware"
	"github.com/greensiliconvalley/portal/internal/visibility"
	"github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/response"
)

// ResourceHandler lists resources visible to the authenticated user.
type ResourceHandler struct {
	manager *visibility.Manager
}

func NewResourceHandler(manager *visibility.Manager) *ResourceHandler {
	return &ResourceHandler{manager: manager}
}

// GET /api/resources/:type
//
// Always succeeds with a list; unsupported types and unknown users yield an
// empty one.
func (h *ResourceHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	resourceType := c.Param("type")
	ids := h.manager.GetVisibleResources(requestContext(c), userID, resourceType)

	response.Success(c, http.StatusOK, gin.H{
		"resource_type": resourceType,
		"resource_ids":  ids,
	})
}
