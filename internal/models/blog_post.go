package models

import (
	"time"

	"gorm.io/datatypes"
)

// BlogPost is a published article on the public bulletin board.
//
// Blog posts predate the shared visibility column convention; their embedded
// column is named permitted_roles rather than visibility_roles.
type BlogPost struct {
	BaseModel

	Title       string     `gorm:"not null" json:"title"`
	Body        string     `json:"body"`
	AuthorID    *string    `gorm:"type:uuid;index" json:"author_id"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`

	PermittedRoles datatypes.JSON `gorm:"column:permitted_roles" json:"permitted_roles"`
}

// TableName overrides the default table name for GORM.
func (BlogPost) TableName() string {
	return "blog_posts"
}
