package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/greensiliconvalley/portal/internal/database/testutil"
	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/internal/services"
)

func TestCleanupOrphanedApprovals(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	rule := models.VisibilityRule{
		ResourceType: models.ResourceTypePresentation,
		ResourceID:   "pres-1",
	}
	require.NoError(t, db.Create(&rule).Error)

	kept := models.VisibilityApproval{
		ResourceType: models.ResourceTypePresentation,
		ResourceID:   "pres-1",
		UserID:       "user-1",
	}
	orphaned := models.VisibilityApproval{
		ResourceType: models.ResourceTypeForm,
		ResourceID:   "form-gone",
		UserID:       "user-1",
	}
	require.NoError(t, db.Create(&kept).Error)
	require.NoError(t, db.Create(&orphaned).Error)

	removed, err := CleanupOrphanedApprovals(context.Background(), db)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, db.Model(&models.VisibilityApproval{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{
		Action:    services.AuditActionLogin,
		Result:    services.AuditResultSuccess,
		CreatedAt: time.Now().AddDate(0, 0, -45),
	}
	recent := models.AuditLog{
		Action:    services.AuditActionLogin,
		Result:    services.AuditResultSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	orphaned := models.VisibilityApproval{
		ResourceType: models.ResourceTypeForm,
		ResourceID:   "form-gone",
		UserID:       "user-1",
	}
	require.NoError(t, db.Create(&orphaned).Error)

	cleaner := NewCleaner(db, audit, WithAuditRetentionDays(30))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.EqualValues(t, 1, auditCount)

	var approvalCount int64
	require.NoError(t, db.Model(&models.VisibilityApproval{}).Count(&approvalCount).Error)
	require.EqualValues(t, 0, approvalCount)
}

func TestCleanerStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(db, audit, WithAuditSchedule("@every 1h"), WithApprovalSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())

	ctx := cleaner.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cleaner did not stop in time")
	}
}
