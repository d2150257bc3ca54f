package visibility

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/pkg/logger"
)

// ErrUnknownResourceType is returned when a resource type has no registered
// adapter.
var ErrUnknownResourceType = errors.New("visibility: unknown resource type")

// Store translates between resource types and the physical location of their
// visibility declarations: the dedicated rules table first, the embedded
// column on the resource's own row as fallback.
type Store struct {
	db       *gorm.DB
	adapters map[string]ResourceAdapter
	log      *zap.Logger
}

// NewStore constructs a visibility store backed by the provided database.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("visibility store: db is required")
	}
	return &Store{
		db:       db,
		adapters: newAdapterRegistry(db),
		log:      logger.WithModule("visibility"),
	}, nil
}

// Adapter returns the registered adapter for a resource type.
func (s *Store) Adapter(resourceType string) (ResourceAdapter, bool) {
	adapter, ok := s.adapters[resourceType]
	return adapter, ok
}

// ReadRules loads every rule governing the resource. Dedicated rule records
// win; when none exist the embedded column is read and a single rule is
// synthesised from it. Returns an empty slice when the resource has neither,
// and on any read error: evaluation falls back to type defaults rather than
// failing open.
func (s *Store) ReadRules(ctx context.Context, resourceType, resourceID string) []Rule {
	var records []models.VisibilityRule
	err := s.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		s.log.Warn("rule read failed",
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return nil
	}

	if len(records) > 0 {
		rules := make([]Rule, 0, len(records))
		for i := range records {
			rule, err := ruleFromModel(&records[i])
			if err != nil {
				s.log.Warn("skipping undecodable rule",
					zap.String("rule_id", records[i].ID),
					zap.Error(err),
				)
				continue
			}
			rules = append(rules, rule)
		}
		return rules
	}

	adapter, ok := s.Adapter(resourceType)
	if !ok {
		return nil
	}

	roles, populated, err := adapter.ReadEmbedded(ctx, resourceID)
	if err != nil {
		s.log.Warn("embedded read failed",
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return nil
	}
	if !populated {
		return nil
	}

	return []Rule{embeddedRule(resourceType, resourceID, roles)}
}

// WriteRule persists the rule: the dedicated record is upserted so a resource
// ends up with at most one authoritative rule, and the embedded column on the
// resource row is stamped to keep enumeration consistent. Write failures
// propagate to the caller.
func (s *Store) WriteRule(ctx context.Context, rule Rule) error {
	adapter, ok := s.Adapter(rule.ResourceType)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownResourceType, rule.ResourceType)
	}

	record, err := s.ruleToModel(rule)
	if err != nil {
		return fmt.Errorf("visibility store: encode rule: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VisibilityRule
		findErr := tx.
			Where("resource_type = ? AND resource_id = ?", rule.ResourceType, rule.ResourceID).
			Order("created_at ASC").
			Take(&existing).Error
		switch {
		case findErr == nil:
			record.BaseModel = existing.BaseModel
			if err := tx.Model(&existing).Select(
				"allowed_roles", "allowed_users", "exclude_roles", "exclude_users",
				"is_public", "require_approval", "start_date", "end_date", "timezone",
			).Updates(&record).Error; err != nil {
				return fmt.Errorf("update rule: %w", err)
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("create rule: %w", err)
			}
		default:
			return fmt.Errorf("load existing rule: %w", findErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("visibility store: persist rule: %w", err)
	}

	return adapter.WriteEmbedded(ctx, rule.ResourceID, rule.embeddedColumnValue())
}

// ListEmbedded enumerates every row of the resource type with a populated
// embedded visibility column. Cost is a full table scan.
func (s *Store) ListEmbedded(ctx context.Context, resourceType string) ([]EmbeddedVisibility, error) {
	adapter, ok := s.Adapter(resourceType)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownResourceType, resourceType)
	}
	return adapter.ListEmbedded(ctx)
}

// HasApproval reports whether an approval record exists for the principal and
// resource. Read errors deny.
func (s *Store) HasApproval(ctx context.Context, resourceType, resourceID, userID string) bool {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.VisibilityApproval{}).
		Where("resource_type = ? AND resource_id = ? AND user_id = ?", resourceType, resourceID, userID).
		Count(&count).Error
	if err != nil {
		s.log.Warn("approval read failed",
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return false
	}
	return count > 0
}

// RecordApproval stores an approval record for the principal and resource.
func (s *Store) RecordApproval(ctx context.Context, resourceType, resourceID, userID string, approvedByID *string) error {
	approval := models.VisibilityApproval{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		UserID:       userID,
		ApprovedByID: approvedByID,
	}
	if err := s.db.WithContext(ctx).Create(&approval).Error; err != nil {
		return fmt.Errorf("visibility store: record approval: %w", err)
	}
	return nil
}

func (s *Store) ruleToModel(rule Rule) (models.VisibilityRule, error) {
	allowedRoles, err := encodeStringList(rule.AllowedRoles)
	if err != nil {
		return models.VisibilityRule{}, err
	}
	allowedUsers, err := encodeStringList(rule.AllowedUsers)
	if err != nil {
		return models.VisibilityRule{}, err
	}
	excludeRoles, err := encodeStringList(rule.Restrictions.ExcludeRoles)
	if err != nil {
		return models.VisibilityRule{}, err
	}
	excludeUsers, err := encodeStringList(rule.Restrictions.ExcludeUsers)
	if err != nil {
		return models.VisibilityRule{}, err
	}

	record := models.VisibilityRule{
		ResourceType:    rule.ResourceType,
		ResourceID:      rule.ResourceID,
		AllowedRoles:    allowedRoles,
		AllowedUsers:    allowedUsers,
		ExcludeRoles:    excludeRoles,
		ExcludeUsers:    excludeUsers,
		IsPublic:        rule.IsPublic,
		RequireApproval: rule.Restrictions.RequireApproval,
	}

	if window := rule.Restrictions.TimeWindow; window != nil {
		record.StartDate = window.StartDate
		record.EndDate = window.EndDate
		record.Timezone = window.Timezone
	}

	return record, nil
}
