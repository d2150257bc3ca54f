package models

// Resource types governed by the visibility engine. Each maps to its own
// table carrying an embedded visibility column.
const (
	ResourceTypeForm                 = "form"
	ResourceTypeVolunteerApplication = "volunteer_application"
	ResourceTypeSchoolRequest        = "school_request"
	ResourceTypePresentation         = "presentation"
	ResourceTypeVolunteerHours       = "volunteer_hours"
	ResourceTypeInternProject        = "intern_project"
	ResourceTypeBlogPost             = "blog_post"
)

// KnownResourceTypes lists every governed resource type.
var KnownResourceTypes = []string{
	ResourceTypeForm,
	ResourceTypeVolunteerApplication,
	ResourceTypeSchoolRequest,
	ResourceTypePresentation,
	ResourceTypeVolunteerHours,
	ResourceTypeInternProject,
	ResourceTypeBlogPost,
}

// IsKnownResourceType reports whether the supplied type is governed.
func IsKnownResourceType(resourceType string) bool {
	for _, known := range KnownResourceTypes {
		if resourceType == known {
			return true
		}
	}
	return false
}
