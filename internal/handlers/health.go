package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/pkg/errors"
	"github.com/greensiliconvalley/portal/pkg/response"
)

var errDatabaseUnavailable = errors.New("SERVICE_UNAVAILABLE", "Database unreachable", http.StatusServiceUnavailable)

// Health reports whether the portal can serve requests. The database is
// pinged on every call so load balancers pull a node whose connection died.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, errDatabaseUnavailable.WithInternal(err))
			return
		}

		response.Success(c, http.StatusOK, gin.H{
			"status":   "ok",
			"database": "ok",
		})
	}
}
