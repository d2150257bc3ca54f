package visibility

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/greensiliconvalley/portal/internal/models"
)

// EmbeddedVisibility is one resource row's embedded visibility declaration.
type EmbeddedVisibility struct {
	ResourceID string
	Roles      []string
}

// ResourceAdapter abstracts the physical location of a resource type's
// embedded visibility column. Adding a resource type means registering one
// more adapter; no evaluation code changes.
type ResourceAdapter interface {
	ResourceType() string

	// ReadEmbedded returns the embedded role list for the row, and whether
	// the column was populated at all.
	ReadEmbedded(ctx context.Context, resourceID string) ([]string, bool, error)

	// WriteEmbedded stamps the column on the row. The update is blind: a
	// missing row is a silent no-op, not an error.
	WriteEmbedded(ctx context.Context, resourceID string, roles []string) error

	// ListEmbedded scans the whole table for rows with a populated column.
	ListEmbedded(ctx context.Context) ([]EmbeddedVisibility, error)
}

// tableAdapter implements ResourceAdapter for a (table, column) pair.
type tableAdapter struct {
	db           *gorm.DB
	resourceType string
	table        string
	column       string
}

func (a *tableAdapter) ResourceType() string {
	return a.resourceType
}

func (a *tableAdapter) ReadEmbedded(ctx context.Context, resourceID string) ([]string, bool, error) {
	var row struct {
		Value datatypes.JSON
	}
	err := a.db.WithContext(ctx).
		Table(a.table).
		Select(a.column+" AS value").
		Where("id = ?", resourceID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("visibility adapter %s: read embedded: %w", a.resourceType, err)
	}
	if len(row.Value) == 0 {
		return nil, false, nil
	}

	roles, err := decodeStringList(row.Value)
	if err != nil {
		return nil, false, fmt.Errorf("visibility adapter %s: decode embedded: %w", a.resourceType, err)
	}
	if len(roles) == 0 {
		return nil, false, nil
	}
	return roles, true, nil
}

func (a *tableAdapter) WriteEmbedded(ctx context.Context, resourceID string, roles []string) error {
	payload, err := encodeStringList(roles)
	if err != nil {
		return fmt.Errorf("visibility adapter %s: encode embedded: %w", a.resourceType, err)
	}

	err = a.db.WithContext(ctx).
		Table(a.table).
		Where("id = ?", resourceID).
		Update(a.column, payload).Error
	if err != nil {
		return fmt.Errorf("visibility adapter %s: write embedded: %w", a.resourceType, err)
	}
	return nil
}

func (a *tableAdapter) ListEmbedded(ctx context.Context) ([]EmbeddedVisibility, error) {
	var rows []struct {
		ID    string
		Value datatypes.JSON
	}
	err := a.db.WithContext(ctx).
		Table(a.table).
		Select("id, "+a.column+" AS value").
		Where(a.column + " IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("visibility adapter %s: list embedded: %w", a.resourceType, err)
	}

	out := make([]EmbeddedVisibility, 0, len(rows))
	for _, row := range rows {
		roles, err := decodeStringList(row.Value)
		if err != nil || len(roles) == 0 {
			continue
		}
		out = append(out, EmbeddedVisibility{ResourceID: row.ID, Roles: roles})
	}
	return out, nil
}

// newAdapterRegistry wires one adapter per governed resource type. Blog
// posts keep their legacy permitted_roles column name.
func newAdapterRegistry(db *gorm.DB) map[string]ResourceAdapter {
	specs := []struct {
		resourceType string
		table        string
		column       string
	}{
		{models.ResourceTypeForm, models.Form{}.TableName(), "visibility_roles"},
		{models.ResourceTypeVolunteerApplication, models.VolunteerApplication{}.TableName(), "visibility_roles"},
		{models.ResourceTypeSchoolRequest, models.SchoolRequest{}.TableName(), "visibility_roles"},
		{models.ResourceTypePresentation, models.Presentation{}.TableName(), "visibility_roles"},
		{models.ResourceTypeVolunteerHours, models.VolunteerHours{}.TableName(), "visibility_roles"},
		{models.ResourceTypeInternProject, models.InternProject{}.TableName(), "visibility_roles"},
		{models.ResourceTypeBlogPost, models.BlogPost{}.TableName(), "permitted_roles"},
	}

	registry := make(map[string]ResourceAdapter, len(specs))
	for _, spec := range specs {
		registry[spec.resourceType] = &tableAdapter{
			db:           db,
			resourceType: spec.resourceType,
			table:        spec.table,
			column:       spec.column,
		}
	}
	return registry
}
