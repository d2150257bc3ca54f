package models

import "gorm.io/datatypes"

// InternProject tracks work assigned to interns.
type InternProject struct {
	BaseModel

	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	OwnerID     *string `gorm:"type:uuid;index" json:"owner_id"`
	Status      string  `gorm:"type:varchar(32);default:'active';index" json:"status"`

	VisibilityRoles datatypes.JSON `gorm:"column:visibility_roles" json:"visibility_roles"`
}

// TableName overrides the default table name for GORM.
func (InternProject) TableName() string {
	return "intern_projects"
}
