package models

import "gorm.io/datatypes"

// Form is a generic portal form (signups, surveys, waivers) built by staff.
type Form struct {
	BaseModel

	Title       string  `gorm:"not null" json:"title"`
	Description string  `json:"description"`
	CreatedByID *string `gorm:"type:uuid;index" json:"created_by_id"`
	IsOpen      bool    `gorm:"default:true" json:"is_open"`

	// JSON array of role names; "public" marks the form world-visible.
	VisibilityRoles datatypes.JSON `gorm:"column:visibility_roles" json:"visibility_roles"`
}

// TableName overrides the default table name for GORM.
func (Form) TableName() string {
	return "forms"
}
