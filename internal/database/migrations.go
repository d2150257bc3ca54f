package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/pkg/crypto"
	"github.com/greensiliconvalley/portal/pkg/logger"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Form{},
		&models.VolunteerApplication{},
		&models.SchoolRequest{},
		&models.Presentation{},
		&models.VolunteerHours{},
		&models.InternProject{},
		&models.BlogPost{},
		&models.VisibilityRule{},
		&models.VisibilityApproval{},
	)
}

// SeedData creates the bootstrap founder account when no users exist yet.
// The generated password is logged once; operators are expected to rotate it.
func SeedData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := uuid.NewString()
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	founder := models.User{
		Username: "founder",
		Email:    "founder@greensiliconvalley.org",
		Password: hash,
		Role:     models.RoleFounder,
		IsActive: true,
	}
	if err := db.Create(&founder).Error; err != nil {
		return fmt.Errorf("create bootstrap founder: %w", err)
	}

	logger.WithModule("database").Warn("created bootstrap founder account",
		zap.String("username", founder.Username),
		zap.String("password", password),
	)
	return nil
}
