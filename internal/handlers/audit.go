package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/internal/services"
	"github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/response"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	opts := services.AuditListOptions{
		Filters: services.AuditFilters{
			UserID:   c.Query("user_id"),
			Action:   c.Query("action"),
			Result:   c.Query("result"),
			Resource: c.Query("resource"),
		},
	}

	var err error
	if opts.Page, err = intQuery(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if opts.PageSize, err = intQuery(c, "per_page"); err != nil {
		response.Error(c, err)
		return
	}
	if opts.Filters.Since, err = timeQuery(c, "since"); err != nil {
		response.Error(c, err)
		return
	}
	if opts.Filters.Until, err = timeQuery(c, "until"); err != nil {
		response.Error(c, err)
		return
	}

	logs, total, err := h.audit.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := make([]gin.H, 0, len(logs))
	for i := range logs {
		payload = append(payload, auditPayload(&logs[i]))
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	response.SuccessWithMeta(c, http.StatusOK, payload, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	})
}

func auditPayload(log *models.AuditLog) gin.H {
	payload := gin.H{
		"id":         log.ID,
		"action":     log.Action,
		"resource":   log.Resource,
		"result":     log.Result,
		"username":   log.Username,
		"created_at": log.CreatedAt,
	}
	if log.UserID != nil {
		payload["user_id"] = *log.UserID
	}
	if log.IPAddress != "" {
		payload["ip_address"] = log.IPAddress
	}
	return payload
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.NewBadRequest(name + " must be a non-negative integer")
	}
	return value, nil
}

func timeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.NewBadRequest(name + " must be RFC 3339 formatted")
	}
	return &value, nil
}
