package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greensiliconvalley/portal/internal/database/testutil"
	"github.com/greensiliconvalley/portal/internal/models"
)

func newAuditService(t *testing.T) *AuditService {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	return svc
}

func TestAuditServiceLogAndList(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	userID := "user-1"
	require.NoError(t, svc.Log(ctx, AuditEntry{
		UserID:   &userID,
		Username: "ida",
		Action:   AuditActionVisibilitySet,
		Resource: "presentation/pres-1",
		Result:   AuditResultSuccess,
		Metadata: map[string]any{"is_public": true},
	}))
	require.NoError(t, svc.Log(ctx, AuditEntry{
		Username: "vera",
		Action:   AuditActionLogin,
		Result:   AuditResultFailure,
	}))

	logs, total, err := svc.List(ctx, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	logs, total, err = svc.List(ctx, AuditListOptions{
		Filters: AuditFilters{Action: AuditActionVisibilitySet},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "presentation/pres-1", logs[0].Resource)
	require.JSONEq(t, `{"is_public":true}`, logs[0].Metadata)
}

func TestAuditServiceLogRequiresActionAndResult(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	require.Error(t, svc.Log(ctx, AuditEntry{Result: AuditResultSuccess}))
	require.Error(t, svc.Log(ctx, AuditEntry{Action: AuditActionLogin}))
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	old := models.AuditLog{
		Action:    AuditActionLogin,
		Result:    AuditResultSuccess,
		CreatedAt: time.Now().AddDate(0, 0, -120),
	}
	require.NoError(t, svc.db.Create(&old).Error)
	require.NoError(t, svc.Log(ctx, AuditEntry{Action: AuditActionLogin, Result: AuditResultSuccess}))

	removed, err := svc.CleanupOlderThan(ctx, 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, total, err := svc.List(ctx, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, err = svc.CleanupOlderThan(ctx, 0)
	require.Error(t, err)
}
