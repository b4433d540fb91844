package schema

import "sort"

// AttributeChange records one attribute's old and new values on a field
// present in both schema versions.
type AttributeChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// FieldChange reports every attribute that differs for one common field.
type FieldChange struct {
	FieldID string                     `json:"field_id"`
	Changes map[string]AttributeChange `json:"changes"`
}

// DiffResult summarizes the differences between two schema versions.
type DiffResult struct {
	Added       []string      `json:"added_fields"`
	Removed     []string      `json:"removed_fields"`
	Changed     []FieldChange `json:"changed_fields"`
	IsDifferent bool          `json:"is_different"`
}

// Diff compares two schema versions field by field. Added and removed are
// field_id set differences; changed covers only field_ids present in both,
// with a per-attribute old/new record. A renamed control therefore shows up
// as one removal plus one addition, never as a change.
func Diff(oldSchema, newSchema *FormSchema) DiffResult {
	oldByID := make(map[string]FieldRecord, len(oldSchema.Fields))
	for _, f := range oldSchema.Fields {
		oldByID[f.FieldID] = f
	}
	newByID := make(map[string]FieldRecord, len(newSchema.Fields))
	for _, f := range newSchema.Fields {
		newByID[f.FieldID] = f
	}

	var added, removed, common []string
	for id := range newByID {
		if _, ok := oldByID[id]; !ok {
			added = append(added, id)
		} else {
			common = append(common, id)
		}
	}
	for id := range oldByID {
		if _, ok := newByID[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(common)

	var changed []FieldChange
	for _, id := range common {
		if changes := fieldChanges(oldByID[id], newByID[id]); len(changes) > 0 {
			changed = append(changed, FieldChange{FieldID: id, Changes: changes})
		}
	}

	return DiffResult{
		Added:       added,
		Removed:     removed,
		Changed:     changed,
		IsDifferent: len(added) > 0 || len(removed) > 0 || len(changed) > 0,
	}
}

func fieldChanges(oldField, newField FieldRecord) map[string]AttributeChange {
	changes := make(map[string]AttributeChange)

	record := func(attr string, oldVal, newVal interface{}) {
		changes[attr] = AttributeChange{Old: oldVal, New: newVal}
	}

	if oldField.DisplayLabel != newField.DisplayLabel {
		record("display_label", oldField.DisplayLabel, newField.DisplayLabel)
	}
	if oldField.FieldType != newField.FieldType {
		record("field_type", oldField.FieldType, newField.FieldType)
	}
	if oldField.Section != newField.Section {
		record("section", oldField.Section, newField.Section)
	}
	if oldField.Required != newField.Required {
		record("required", oldField.Required, newField.Required)
	}
	if !stringSlicesEqual(oldField.Options, newField.Options) {
		record("options", oldField.Options, newField.Options)
	}
	if oldField.Page != newField.Page {
		record("page", oldField.Page, newField.Page)
	}
	if !float64SlicesEqual(oldField.Rect, newField.Rect) {
		record("rect", oldField.Rect, newField.Rect)
	}
	if oldField.Tooltip != newField.Tooltip {
		record("tooltip", oldField.Tooltip, newField.Tooltip)
	}
	if oldField.Role != newField.Role {
		record("role", oldField.Role, newField.Role)
	}
	if oldField.TargetField != newField.TargetField {
		record("target_field", oldField.TargetField, newField.TargetField)
	}

	return changes
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func float64SlicesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
