package visibility

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/database/testutil"
	"github.com/greensiliconvalley/portal/internal/models"
)

func setupVisibilityTest(t *testing.T) (*gorm.DB, *Manager) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	store, err := NewStore(db)
	require.NoError(t, err)

	evaluator, err := NewEvaluator(db, store, nil)
	require.NoError(t, err)

	manager, err := NewManager(db, store, evaluator)
	require.NoError(t, err)

	return db, manager
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@greensiliconvalley.org",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createPresentation(t *testing.T, db *gorm.DB, title string) *models.Presentation {
	t.Helper()

	presentation := models.Presentation{Title: title}
	require.NoError(t, db.Create(&presentation).Error)
	return &presentation
}

func createBlogPost(t *testing.T, db *gorm.DB, title string) *models.BlogPost {
	t.Helper()

	post := models.BlogPost{Title: title}
	require.NoError(t, db.Create(&post).Error)
	return &post
}
