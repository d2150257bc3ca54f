package visibility

import "github.com/greensiliconvalley/portal/internal/models"

// EveryoneMarker grants a default to all principals regardless of role.
const EveryoneMarker = "*"

// Defaults maps a resource type to the roles it is visible to when no rule
// exists. The evaluator receives this map at construction so alternate
// policies can be substituted without touching package state.
type Defaults map[string][]string

// BuiltinDefaults returns the portal's stock default-visibility table.
// Resource types absent from the map fall back to founder-only.
func BuiltinDefaults() Defaults {
	return Defaults{
		models.ResourceTypeForm:                 {models.RoleFounder, models.RoleIntern, models.RoleVolunteer, models.RoleTeacher},
		models.ResourceTypeVolunteerApplication: {models.RoleFounder, models.RoleIntern},
		models.ResourceTypeSchoolRequest:        {models.RoleFounder, models.RoleIntern, models.RoleOutreach},
		models.ResourceTypePresentation:         {models.RoleFounder, models.RoleIntern, models.RoleVolunteer, models.RoleTeacher},
		models.ResourceTypeVolunteerHours:       {models.RoleFounder, models.RoleIntern},
		models.ResourceTypeInternProject:        {models.RoleFounder, models.RoleIntern},
		models.ResourceTypeBlogPost:             {EveryoneMarker},
	}
}

// Allows reports whether the default policy grants the role access to the
// resource type.
func (d Defaults) Allows(resourceType, role string) bool {
	roles, ok := d[resourceType]
	if !ok {
		return role == models.RoleFounder
	}
	if containsString(roles, EveryoneMarker) {
		return true
	}
	return containsString(roles, role)
}
