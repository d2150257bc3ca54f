package models

import (
	"time"

	"gorm.io/datatypes"
)

// Presentation is a scheduled classroom session delivered by volunteers.
type Presentation struct {
	BaseModel

	Title       string     `gorm:"not null" json:"title"`
	SchoolName  string     `json:"school_name"`
	PresenterID *string    `gorm:"type:uuid;index" json:"presenter_id"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
	Status      string     `gorm:"type:varchar(32);default:'scheduled';index" json:"status"`

	VisibilityRoles datatypes.JSON `gorm:"column:visibility_roles" json:"visibility_roles"`
}

// TableName overrides the default table name for GORM.
func (Presentation) TableName() string {
	return "presentations"
}
