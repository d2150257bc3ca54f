package models

import "time"

// Portal roles. A user carries exactly one role; it is the sole attribute
// consulted during visibility evaluation.
const (
	RoleFounder   = "founder"
	RoleAdmin     = "admin"
	RoleIntern    = "intern"
	RoleVolunteer = "volunteer"
	RoleTeacher   = "teacher"
	RolePartner   = "partner"
	RoleOutreach  = "outreach"
)

// KnownRoles lists every role the portal recognises.
var KnownRoles = []string{
	RoleFounder,
	RoleAdmin,
	RoleIntern,
	RoleVolunteer,
	RoleTeacher,
	RolePartner,
	RoleOutreach,
}

// IsKnownRole reports whether the supplied role is one the portal recognises.
func IsKnownRole(role string) bool {
	for _, known := range KnownRoles {
		if role == known {
			return true
		}
	}
	return false
}

// User describes portal members: founders, interns, volunteers, teachers,
// partner-school contacts, and outreach coordinators.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Role     string `gorm:"type:varchar(32);not null;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
