package models

import (
	"time"

	"gorm.io/datatypes"
)

// SchoolRequest is a partner school asking for a classroom presentation.
type SchoolRequest struct {
	BaseModel

	SchoolName    string     `gorm:"not null" json:"school_name"`
	ContactName   string     `json:"contact_name"`
	ContactEmail  string     `gorm:"index" json:"contact_email"`
	Topic         string     `json:"topic"`
	RequestedDate *time.Time `json:"requested_date"`
	Status        string     `gorm:"type:varchar(32);default:'pending';index" json:"status"`

	VisibilityRoles datatypes.JSON `gorm:"column:visibility_roles" json:"visibility_roles"`
}

// TableName overrides the default table name for GORM.
func (SchoolRequest) TableName() string {
	return "school_requests"
}
