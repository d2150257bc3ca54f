package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greensiliconvalley/portal/internal/models"
	appErrors "github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/response"
	appValidator "github.com/greensiliconvalley/portal/pkg/validator"
)

// Request structs use the "role" and "resource_type" tags below; the lists
// they check live with the models.
func init() {
	if err := appValidator.RegisterEnum("role", models.IsKnownRole); err != nil {
		panic(err)
	}
	if err := appValidator.RegisterEnum("resource_type", models.IsKnownResourceType); err != nil {
		panic(err)
	}
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	ve, ok := err.(appValidator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		messages = append(messages, failure.Message())
	}
	return strings.Join(messages, "; ")
}

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}
