package visibility

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/greensiliconvalley/portal/internal/models"
)

// PublicMarker is the sentinel stored in embedded visibility columns to mark
// a resource world-visible.
const PublicMarker = "public"

// Principal identifies the caller of an evaluation: a user id and the single
// role resolved from the users table.
type Principal struct {
	UserID string
	Role   string
}

// TimeWindow bounds a rule's validity. Nil bounds are open-ended.
type TimeWindow struct {
	StartDate *time.Time
	EndDate   *time.Time
	Timezone  string
}

// Contains reports whether the supplied instant falls inside the window.
func (w *TimeWindow) Contains(now time.Time) bool {
	if w == nil {
		return true
	}
	if w.Timezone != "" {
		if loc, err := time.LoadLocation(w.Timezone); err == nil {
			now = now.In(loc)
		}
	}
	if w.StartDate != nil && now.Before(*w.StartDate) {
		return false
	}
	if w.EndDate != nil && now.After(*w.EndDate) {
		return false
	}
	return true
}

// Restrictions narrow an otherwise matching rule.
type Restrictions struct {
	ExcludeRoles    []string
	ExcludeUsers    []string
	RequireApproval bool
	TimeWindow      *TimeWindow
}

// Rule is the in-memory form of a visibility declaration, whether it came
// from the dedicated rules table or was synthesised from an embedded column.
type Rule struct {
	ResourceType string
	ResourceID   string
	AllowedRoles []string
	AllowedUsers []string
	IsPublic     bool
	Restrictions Restrictions
}

func ruleFromModel(record *models.VisibilityRule) (Rule, error) {
	allowedRoles, err := decodeStringList(record.AllowedRoles)
	if err != nil {
		return Rule{}, fmt.Errorf("decode allowed roles: %w", err)
	}
	allowedUsers, err := decodeStringList(record.AllowedUsers)
	if err != nil {
		return Rule{}, fmt.Errorf("decode allowed users: %w", err)
	}
	excludeRoles, err := decodeStringList(record.ExcludeRoles)
	if err != nil {
		return Rule{}, fmt.Errorf("decode exclude roles: %w", err)
	}
	excludeUsers, err := decodeStringList(record.ExcludeUsers)
	if err != nil {
		return Rule{}, fmt.Errorf("decode exclude users: %w", err)
	}

	rule := Rule{
		ResourceType: record.ResourceType,
		ResourceID:   record.ResourceID,
		AllowedRoles: allowedRoles,
		AllowedUsers: allowedUsers,
		IsPublic:     record.IsPublic,
		Restrictions: Restrictions{
			ExcludeRoles:    excludeRoles,
			ExcludeUsers:    excludeUsers,
			RequireApproval: record.RequireApproval,
		},
	}

	if record.StartDate != nil || record.EndDate != nil || record.Timezone != "" {
		rule.Restrictions.TimeWindow = &TimeWindow{
			StartDate: record.StartDate,
			EndDate:   record.EndDate,
			Timezone:  record.Timezone,
		}
	}

	return rule, nil
}

// embeddedRule synthesises a rule from an embedded visibility column.
func embeddedRule(resourceType, resourceID string, roles []string) Rule {
	return Rule{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		AllowedRoles: roles,
		IsPublic:     containsString(roles, PublicMarker),
	}
}

// embeddedColumnValue computes what the resource row's visibility column
// should hold for the rule: ["public"] when public, the allow-list otherwise.
func (r Rule) embeddedColumnValue() []string {
	if r.IsPublic {
		return []string{PublicMarker}
	}
	return r.AllowedRoles
}

func decodeStringList(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStringList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
