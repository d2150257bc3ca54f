package models

import (
	"time"

	"gorm.io/datatypes"
)

// VisibilityRule is the persisted policy unit governing who may view a
// resource. The dedicated rules table is consulted before the embedded
// visibility column on the resource's own row.
type VisibilityRule struct {
	BaseModel

	ResourceType string `gorm:"type:varchar(64);not null;index:idx_rule_resource,priority:1" json:"resource_type"`
	ResourceID   string `gorm:"type:uuid;not null;index:idx_rule_resource,priority:2" json:"resource_id"`

	// JSON arrays of role names / user ids.
	AllowedRoles datatypes.JSON `json:"allowed_roles"`
	AllowedUsers datatypes.JSON `json:"allowed_users"`
	ExcludeRoles datatypes.JSON `json:"exclude_roles"`
	ExcludeUsers datatypes.JSON `json:"exclude_users"`

	IsPublic        bool `gorm:"default:false" json:"is_public"`
	RequireApproval bool `gorm:"default:false" json:"require_approval"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Timezone  string     `gorm:"type:varchar(64)" json:"timezone"`
}

// TableName overrides the default table name for GORM.
func (VisibilityRule) TableName() string {
	return "visibility_rules"
}

// VisibilityApproval marks a principal as approved to view a resource whose
// rule demands per-user approval.
type VisibilityApproval struct {
	BaseModel

	ResourceType string  `gorm:"type:varchar(64);not null;index:idx_approval,priority:1" json:"resource_type"`
	ResourceID   string  `gorm:"type:uuid;not null;index:idx_approval,priority:2" json:"resource_id"`
	UserID       string  `gorm:"type:uuid;not null;index:idx_approval,priority:3" json:"user_id"`
	ApprovedByID *string `gorm:"type:uuid" json:"approved_by_id"`
}

// TableName overrides the default table name for GORM.
func (VisibilityApproval) TableName() string {
	return "visibility_approvals"
}
