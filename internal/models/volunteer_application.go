package models

import "gorm.io/datatypes"

// VolunteerApplication tracks an applicant through the volunteer pipeline.
type VolunteerApplication struct {
	BaseModel

	ApplicantName  string `gorm:"not null" json:"applicant_name"`
	ApplicantEmail string `gorm:"index" json:"applicant_email"`
	School         string `json:"school"`
	Status         string `gorm:"type:varchar(32);default:'submitted';index" json:"status"`
	Notes          string `json:"notes"`

	VisibilityRoles datatypes.JSON `gorm:"column:visibility_roles" json:"visibility_roles"`
}

// TableName overrides the default table name for GORM.
func (VolunteerApplication) TableName() string {
	return "volunteer_applications"
}
