package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/logger"
	"github.com/greensiliconvalley/portal/pkg/response"
)

// RequireRole guards a route group behind one of the listed roles. The role
// is re-read from the users table rather than trusted from the token, so a
// demotion takes effect immediately.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).
			Select("id", "role", "is_active").
			Take(&user, "id = ?", userID).Error
		if err != nil {
			logger.WithModule("http").Warn("role lookup failed", zap.String("user_id", userID), zap.Error(err))
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		if !user.IsActive {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		if _, ok := allowed[user.Role]; !ok {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
