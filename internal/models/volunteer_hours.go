package models

import (
	"time"

	"gorm.io/datatypes"
)

// VolunteerHours records time a volunteer logged against the programme.
type VolunteerHours struct {
	BaseModel

	VolunteerID string     `gorm:"type:uuid;not null;index" json:"volunteer_id"`
	Hours       float64    `gorm:"not null" json:"hours"`
	Activity    string     `json:"activity"`
	LoggedFor   *time.Time `json:"logged_for"`
	Approved    bool       `gorm:"default:false" json:"approved"`

	VisibilityRoles datatypes.JSON `gorm:"column:visibility_roles" json:"visibility_roles"`
}

// TableName overrides the default table name for GORM.
func (VolunteerHours) TableName() string {
	return "volunteer_hours"
}
