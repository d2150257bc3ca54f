package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/middleware"
	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/internal/services"
	"github.com/greensiliconvalley/portal/internal/visibility"
	"github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/response"
)

// VisibilityHandler exposes the visibility engine over HTTP.
type VisibilityHandler struct {
	db      *gorm.DB
	manager *visibility.Manager
	audit   *services.AuditService
}

func NewVisibilityHandler(db *gorm.DB, manager *visibility.Manager, audit *services.AuditService) *VisibilityHandler {
	return &VisibilityHandler{db: db, manager: manager, audit: audit}
}

// GET /api/visibility/:type/:id/can-view
//
// Answers for the authenticated user. Founders and admins may ask on behalf
// of another user via the user_id query parameter.
func (h *VisibilityHandler) CanView(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	subject := userID
	if override := strings.TrimSpace(c.Query("user_id")); override != "" && override != userID {
		if !h.actorIsPrivileged(c) {
			response.Error(c, errors.ErrForbidden)
			return
		}
		subject = override
	}

	resourceType := c.Param("type")
	resourceID := c.Param("id")

	allowed := h.manager.Evaluator().CanUserView(requestContext(c), subject, resourceType, resourceID)

	response.Success(c, http.StatusOK, gin.H{
		"user_id":       subject,
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"can_view":      allowed,
	})
}

type visibilityRuleRequest struct {
	AllowedRoles    []string `json:"allowed_roles"`
	AllowedUsers    []string `json:"allowed_users"`
	IsPublic        bool     `json:"is_public"`
	ExcludeRoles    []string `json:"exclude_roles"`
	ExcludeUsers    []string `json:"exclude_users"`
	RequireApproval bool     `json:"require_approval"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	Timezone        string   `json:"timezone"`
}

func (r visibilityRuleRequest) options() (*visibility.SetVisibilityOptions, error) {
	opts := visibility.SetVisibilityOptions{
		AllowedUsers:    r.AllowedUsers,
		IsPublic:        r.IsPublic,
		ExcludeRoles:    r.ExcludeRoles,
		ExcludeUsers:    r.ExcludeUsers,
		RequireApproval: r.RequireApproval,
		Timezone:        strings.TrimSpace(r.Timezone),
	}

	parse := func(value *string, label string) (*time.Time, error) {
		if value == nil || strings.TrimSpace(*value) == "" {
			return nil, nil
		}
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*value))
		if err != nil {
			return nil, errors.NewBadRequest(label + " must be RFC 3339 formatted")
		}
		return &parsed, nil
	}

	var err error
	if opts.StartDate, err = parse(r.StartDate, "start_date"); err != nil {
		return nil, err
	}
	if opts.EndDate, err = parse(r.EndDate, "end_date"); err != nil {
		return nil, err
	}

	return &opts, nil
}

// PUT /api/visibility/:type/:id
func (h *VisibilityHandler) Set(c *gin.Context) {
	var req visibilityRuleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	opts, err := req.options()
	if err != nil {
		response.Error(c, err)
		return
	}

	resourceType := c.Param("type")
	resourceID := c.Param("id")

	if err := h.manager.SetVisibility(requestContext(c), resourceType, resourceID, req.AllowedRoles, opts); err != nil {
		h.logAudit(c, services.AuditActionVisibilitySet, resourceType+"/"+resourceID, services.AuditResultFailure, nil)
		response.Error(c, writeError(err))
		return
	}

	h.logAudit(c, services.AuditActionVisibilitySet, resourceType+"/"+resourceID, services.AuditResultSuccess, map[string]any{
		"allowed_roles": req.AllowedRoles,
		"is_public":     req.IsPublic,
	})

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

type bulkUpdateRequest struct {
	Entries []bulkUpdateEntry `json:"entries" validate:"required,min=1,max=100"`
}

type bulkUpdateEntry struct {
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   string `json:"resource_id" validate:"required"`
	visibilityRuleRequest
}

type bulkEntryResult struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
}

// POST /api/visibility/bulk
//
// Entries are applied independently; a failed entry never rolls back the
// others. The response reports the outcome per entry in request order.
func (h *VisibilityHandler) BulkUpdate(c *gin.Context) {
	var req bulkUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	entries := make([]visibility.BulkEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		opts, err := entry.options()
		if err != nil {
			response.Error(c, err)
			return
		}
		entries = append(entries, visibility.BulkEntry{
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			AllowedRoles: entry.AllowedRoles,
			Options:      opts,
		})
	}

	results := h.manager.BulkUpdateVisibility(requestContext(c), entries)

	payload := make([]bulkEntryResult, 0, len(results))
	failed := 0
	for _, result := range results {
		item := bulkEntryResult{
			ResourceType: result.Entry.ResourceType,
			ResourceID:   result.Entry.ResourceID,
			OK:           result.Err == nil,
		}
		if result.Err != nil {
			failed++
			item.Error = result.Err.Error()
		}
		payload = append(payload, item)
	}

	auditResult := services.AuditResultSuccess
	if failed > 0 {
		auditResult = services.AuditResultFailure
	}
	h.logAudit(c, services.AuditActionVisibilityBulk, "", auditResult, map[string]any{
		"entries": len(results),
		"failed":  failed,
	})

	response.Success(c, http.StatusOK, gin.H{
		"results": payload,
		"failed":  failed,
	})
}

type copyVisibilityRequest struct {
	SourceType string `json:"source_type" validate:"required,resource_type"`
	SourceID   string `json:"source_id" validate:"required"`
	TargetType string `json:"target_type" validate:"required,resource_type"`
	TargetID   string `json:"target_id" validate:"required"`
}

// POST /api/visibility/copy
func (h *VisibilityHandler) Copy(c *gin.Context) {
	var req copyVisibilityRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.manager.CopyVisibilitySettings(requestContext(c), req.SourceType, req.SourceID, req.TargetType, req.TargetID)
	if err != nil {
		h.logAudit(c, services.AuditActionVisibilityCopy, req.TargetType+"/"+req.TargetID, services.AuditResultFailure, nil)
		response.Error(c, writeError(err))
		return
	}

	h.logAudit(c, services.AuditActionVisibilityCopy, req.TargetType+"/"+req.TargetID, services.AuditResultSuccess, map[string]any{
		"source": req.SourceType + "/" + req.SourceID,
	})

	response.Success(c, http.StatusOK, gin.H{"copied": true})
}

type approveViewerRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// POST /api/visibility/:type/:id/approve
func (h *VisibilityHandler) ApproveViewer(c *gin.Context) {
	var req approveViewerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resourceType := c.Param("type")
	resourceID := c.Param("id")

	var approvedBy *string
	if actor := middleware.UserID(c); actor != "" {
		approvedBy = &actor
	}

	if err := h.manager.ApproveViewer(requestContext(c), resourceType, resourceID, req.UserID, approvedBy); err != nil {
		response.Error(c, writeError(err))
		return
	}

	h.logAudit(c, services.AuditActionApproveViewer, resourceType+"/"+resourceID, services.AuditResultSuccess, map[string]any{
		"user_id": req.UserID,
	})

	response.Success(c, http.StatusOK, gin.H{"approved": true})
}

// GET /api/visibility/stats
func (h *VisibilityHandler) Stats(c *gin.Context) {
	stats, err := h.manager.GetVisibilityStats(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// writeError maps visibility write failures for the API. Unknown resource
// types are the caller's mistake; everything else stays internal and reaches
// the client as the 500 envelope without the storage error text.
func writeError(err error) error {
	if stderrors.Is(err, visibility.ErrUnknownResourceType) {
		return errors.NewBadRequest(err.Error())
	}
	return err
}

// actorIsPrivileged re-reads the actor's role from the users table. The role
// carried in JWT claims is display-only.
func (h *VisibilityHandler) actorIsPrivileged(c *gin.Context) bool {
	actorID := middleware.UserID(c)
	if actorID == "" {
		return false
	}

	var user models.User
	err := h.db.WithContext(requestContext(c)).
		Select("role", "is_active").
		Take(&user, "id = ?", actorID).Error
	if err != nil || !user.IsActive {
		return false
	}
	return user.Role == models.RoleFounder || user.Role == models.RoleAdmin
}

func (h *VisibilityHandler) logAudit(c *gin.Context, action, resource, result string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	actorID := middleware.UserID(c)
	var userID *string
	if actorID != "" {
		userID = &actorID
	}
	_ = h.audit.Log(requestContext(c), services.AuditEntry{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  metadata,
	})
}
