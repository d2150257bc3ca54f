package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/database/testutil"
	"github.com/greensiliconvalley/portal/internal/models"
)

func newRoleTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		// Stand-in for the Auth middleware in these tests.
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(CtxUserIDKey, id)
		}
		c.Next()
	}, RequireRole(db, models.RoleFounder, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, db
}

func doRoleRequest(r *gin.Engine, userID string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	r, db := newRoleTestRouter(t)

	founder := testutil.SeedUser(t, db, "f", models.RoleFounder)

	require.Equal(t, http.StatusOK, doRoleRequest(r, founder.ID).Code)
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	r, db := newRoleTestRouter(t)

	volunteer := testutil.SeedUser(t, db, "v", models.RoleVolunteer)

	require.Equal(t, http.StatusForbidden, doRoleRequest(r, volunteer.ID).Code)
}

func TestRequireRoleRejectsInactiveAndUnknownUsers(t *testing.T) {
	r, db := newRoleTestRouter(t)

	inactive := testutil.SeedUser(t, db, "i", models.RoleFounder)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	require.Equal(t, http.StatusForbidden, doRoleRequest(r, inactive.ID).Code)
	require.Equal(t, http.StatusForbidden, doRoleRequest(r, "ghost").Code)
	require.Equal(t, http.StatusUnauthorized, doRoleRequest(r, "").Code)
}
