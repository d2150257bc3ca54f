package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/greensiliconvalley/portal/pkg/logger"
)

func newLoggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()

	core, recorded := observer.New(zap.DebugLevel)
	t.Cleanup(logger.Swap(zap.New(core)))

	r := gin.New()
	r.Use(Logger())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/resources", func(c *gin.Context) {
		c.Set(CtxUserIDKey, "user-42")
		c.Status(http.StatusOK)
	})
	return r, recorded
}

func TestLoggerSkipsScrapeEndpoints(t *testing.T) {
	r, recorded := newLoggedRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Empty(t, recorded.All())
}

func TestLoggerTagsAuthenticatedRequests(t *testing.T) {
	r, recorded := newLoggedRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resources", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := recorded.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, "/api/resources", fields["path"])
	require.Equal(t, "user-42", fields["user_id"])
	require.EqualValues(t, http.StatusOK, fields["status"])
}
