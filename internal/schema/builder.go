package schema

import "time"

// Builder assembles FormSchema versions from extracted fields.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a schema builder using the system clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Build creates a new FormSchema from an extracted field list. The caller
// assigns the version number (see Store.NextVersion); Build always produces
// version 1 so that first ingestion needs no extra step.
func (b *Builder) Build(fields []FieldRecord, formID, title string, source SourceType) *FormSchema {
	if title == "" {
		title = formID
	}
	now := b.now().UTC().Format(time.RFC3339)

	// Unique sections in first-seen order; empty sections are skipped.
	var sections []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if f.Section == "" || seen[f.Section] {
			continue
		}
		seen[f.Section] = true
		sections = append(sections, f.Section)
	}

	return &FormSchema{
		FormID:      formID,
		Title:       title,
		Source:      source,
		Sections:    sections,
		Fields:      fields,
		Version:     1,
		VersionHash: ComputeVersionHash(fields),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
