package visibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/pkg/logger"
	"github.com/greensiliconvalley/portal/pkg/metrics"
)

// enumerableTypes is the fixed subset of resource types GetVisibleResources
// supports. Other types return an empty list.
var enumerableTypes = map[string]struct{}{
	models.ResourceTypeForm:                 {},
	models.ResourceTypeVolunteerApplication: {},
	models.ResourceTypeSchoolRequest:        {},
	models.ResourceTypePresentation:         {},
}

// SetVisibilityOptions carries the optional parts of a visibility rule.
type SetVisibilityOptions struct {
	AllowedUsers    []string
	IsPublic        bool
	ExcludeRoles    []string
	ExcludeUsers    []string
	RequireApproval bool
	StartDate       *time.Time
	EndDate         *time.Time
	Timezone        string
}

// BulkEntry is one unit of work for BulkUpdateVisibility.
type BulkEntry struct {
	ResourceType string
	ResourceID   string
	AllowedRoles []string
	Options      *SetVisibilityOptions
}

// BulkResult reports the outcome for one bulk entry.
type BulkResult struct {
	Entry BulkEntry
	Err   error
}

// Stats aggregates rule counts across the portal.
type Stats struct {
	TotalRules          int64 `json:"total_rules"`
	PublicResources     int64 `json:"public_resources"`
	RestrictedResources int64 `json:"restricted_resources"`
}

// Manager exposes the mutation and enumeration operations of the visibility
// engine on top of the Store and Evaluator.
type Manager struct {
	db        *gorm.DB
	store     *Store
	evaluator *Evaluator
	log       *zap.Logger
}

// NewManager constructs a Manager.
func NewManager(db *gorm.DB, store *Store, evaluator *Evaluator) (*Manager, error) {
	if db == nil {
		return nil, errors.New("visibility manager: db is required")
	}
	if store == nil {
		return nil, errors.New("visibility manager: store is required")
	}
	if evaluator == nil {
		return nil, errors.New("visibility manager: evaluator is required")
	}
	return &Manager{
		db:        db,
		store:     store,
		evaluator: evaluator,
		log:       logger.WithModule("visibility"),
	}, nil
}

// Evaluator exposes the underlying evaluator for read-path callers.
func (m *Manager) Evaluator() *Evaluator {
	return m.evaluator
}

// SetVisibility constructs a rule from the arguments and persists it. This is
// the sole mutation entry point; bulk and copy operations compose it.
func (m *Manager) SetVisibility(ctx context.Context, resourceType, resourceID string, allowedRoles []string, opts *SetVisibilityOptions) error {
	resourceType = strings.TrimSpace(resourceType)
	resourceID = strings.TrimSpace(resourceID)
	if resourceType == "" || resourceID == "" {
		return errors.New("visibility manager: resource type and id are required")
	}

	rule := Rule{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		AllowedRoles: normaliseList(allowedRoles),
	}

	if opts != nil {
		rule.AllowedUsers = normaliseList(opts.AllowedUsers)
		rule.IsPublic = opts.IsPublic
		rule.Restrictions = Restrictions{
			ExcludeRoles:    normaliseList(opts.ExcludeRoles),
			ExcludeUsers:    normaliseList(opts.ExcludeUsers),
			RequireApproval: opts.RequireApproval,
		}
		if opts.StartDate != nil || opts.EndDate != nil || opts.Timezone != "" {
			rule.Restrictions.TimeWindow = &TimeWindow{
				StartDate: opts.StartDate,
				EndDate:   opts.EndDate,
				Timezone:  strings.TrimSpace(opts.Timezone),
			}
		}
	}

	if err := m.store.WriteRule(ctx, rule); err != nil {
		metrics.VisibilityWrites.WithLabelValues("set", "failure").Inc()
		return err
	}
	metrics.VisibilityWrites.WithLabelValues("set", "success").Inc()
	return nil
}

// BulkUpdateVisibility applies SetVisibility to every entry concurrently and
// returns a result per entry, index-aligned with the input. There is no
// transaction across entries: a failure on one does not roll back others.
func (m *Manager) BulkUpdateVisibility(ctx context.Context, entries []BulkEntry) []BulkResult {
	results := make([]BulkResult, len(entries))

	var wg sync.WaitGroup
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := entries[i]
			results[i] = BulkResult{
				Entry: entry,
				Err:   m.SetVisibility(ctx, entry.ResourceType, entry.ResourceID, entry.AllowedRoles, entry.Options),
			}
		}(i)
	}
	wg.Wait()

	result := "success"
	if err := CombineResults(results); err != nil {
		result = "failure"
	}
	metrics.VisibilityWrites.WithLabelValues("bulk", result).Inc()

	return results
}

// CombineResults folds per-entry bulk errors into one aggregate error.
func CombineResults(results []BulkResult) error {
	var err error
	for _, res := range results {
		if res.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s/%s: %w", res.Entry.ResourceType, res.Entry.ResourceID, res.Err))
		}
	}
	return err
}

// CopyVisibilitySettings re-applies the source resource's first rule to the
// target. No-op when the source has no rule.
func (m *Manager) CopyVisibilitySettings(ctx context.Context, sourceType, sourceID, targetType, targetID string) error {
	rules := m.store.ReadRules(ctx, sourceType, sourceID)
	if len(rules) == 0 {
		return nil
	}

	src := rules[0]
	opts := &SetVisibilityOptions{
		AllowedUsers:    src.AllowedUsers,
		IsPublic:        src.IsPublic,
		ExcludeRoles:    src.Restrictions.ExcludeRoles,
		ExcludeUsers:    src.Restrictions.ExcludeUsers,
		RequireApproval: src.Restrictions.RequireApproval,
	}
	if window := src.Restrictions.TimeWindow; window != nil {
		opts.StartDate = window.StartDate
		opts.EndDate = window.EndDate
		opts.Timezone = window.Timezone
	}

	if err := m.SetVisibility(ctx, targetType, targetID, src.AllowedRoles, opts); err != nil {
		metrics.VisibilityWrites.WithLabelValues("copy", "failure").Inc()
		return err
	}
	metrics.VisibilityWrites.WithLabelValues("copy", "success").Inc()
	return nil
}

// GetVisibleResources lists ids of the given type visible to the user, by
// scanning embedded visibility columns.
//
// The per-row predicate here is deliberately looser than CanUserView: it
// checks the public marker, a role match, and the founder/admin override, but
// ignores allowed_users, exclusions, and time windows. Callers wanting the
// strict answer must re-check each id through the evaluator.
func (m *Manager) GetVisibleResources(ctx context.Context, userID, resourceType string) []string {
	if _, ok := enumerableTypes[resourceType]; !ok {
		return []string{}
	}

	principal, ok := m.evaluator.lookupPrincipal(ctx, userID)
	if !ok {
		return []string{}
	}

	entries, err := m.store.ListEmbedded(ctx, resourceType)
	if err != nil {
		m.log.Warn("enumeration failed",
			zap.String("resource_type", resourceType),
			zap.Error(err),
		)
		return []string{}
	}

	visible := make([]string, 0, len(entries))
	for _, entry := range entries {
		if checkVisibilityRoles(principal.Role, entry.Roles) {
			visible = append(visible, entry.ResourceID)
		}
	}
	return visible
}

// checkVisibilityRoles is the simplified role predicate used by enumeration.
func checkVisibilityRoles(role string, roles []string) bool {
	if containsString(roles, PublicMarker) {
		return true
	}
	if containsString(roles, role) {
		return true
	}
	return role == models.RoleFounder || role == models.RoleAdmin
}

// ApproveViewer records an approval for rules that demand it.
func (m *Manager) ApproveViewer(ctx context.Context, resourceType, resourceID, userID string, approvedByID *string) error {
	resourceType = strings.TrimSpace(resourceType)
	resourceID = strings.TrimSpace(resourceID)
	userID = strings.TrimSpace(userID)
	if resourceType == "" || resourceID == "" || userID == "" {
		return errors.New("visibility manager: resource type, id, and user id are required")
	}
	return m.store.RecordApproval(ctx, resourceType, resourceID, userID, approvedByID)
}

// GetVisibilityStats aggregates rule counts from the dedicated rules table.
func (m *Manager) GetVisibilityStats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := m.db.WithContext(ctx).Model(&models.VisibilityRule{}).Count(&stats.TotalRules).Error; err != nil {
		return Stats{}, fmt.Errorf("visibility manager: count rules: %w", err)
	}
	if err := m.db.WithContext(ctx).Model(&models.VisibilityRule{}).Where("is_public = ?", true).Count(&stats.PublicResources).Error; err != nil {
		return Stats{}, fmt.Errorf("visibility manager: count public rules: %w", err)
	}
	stats.RestrictedResources = stats.TotalRules - stats.PublicResources

	return stats, nil
}

func normaliseList(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
