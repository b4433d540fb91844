package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// SourceType describes how a form schema was obtained from a document.
type SourceType string

const (
	SourceFillable SourceType = "fillable"
	SourceFlatText SourceType = "flat-text"
	SourceScanned  SourceType = "scanned"
)

// FieldType is the normalized control type of an extracted field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCombo    FieldType = "combo"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
)

// Role tags a field that is filled from a secondary profile registry
// (preparer or attorney) rather than from the primary contact record.
type Role string

const (
	RoleNone Role = ""

	RolePreparerName      Role = "preparer_name"
	RolePreparerFirm      Role = "preparer_firm"
	RolePreparerAddress   Role = "preparer_address"
	RolePreparerPhone     Role = "preparer_phone"
	RolePreparerEmail     Role = "preparer_email"
	RolePreparerBarNumber Role = "preparer_bar_number"

	RoleAttorneyName      Role = "attorney_name"
	RoleAttorneyFirm      Role = "attorney_firm"
	RoleAttorneyAddress   Role = "attorney_address"
	RoleAttorneyPhone     Role = "attorney_phone"
	RoleAttorneyEmail     Role = "attorney_email"
	RoleAttorneyBarNumber Role = "attorney_bar_number"
)

// FieldRecord is a single extracted field within a form schema version.
type FieldRecord struct {
	FieldID      string    `json:"field_id"`
	DisplayLabel string    `json:"display_label"`
	FieldType    FieldType `json:"field_type"`
	Section      string    `json:"section"`
	Required     bool      `json:"required"`
	Options      []string  `json:"options,omitempty"`
	Page         int       `json:"page"`
	Rect         []float64 `json:"rect,omitempty"`
	Tooltip      string    `json:"tooltip,omitempty"`
	Role         Role      `json:"role,omitempty"`
	TargetField  string    `json:"target_field,omitempty"`
}

// FormSchema is one immutable version of a form's extracted structure.
type FormSchema struct {
	FormID      string        `json:"form_id"`
	Title       string        `json:"title"`
	Source      SourceType    `json:"source"`
	Sections    []string      `json:"sections"`
	Fields      []FieldRecord `json:"fields"`
	Version     int           `json:"version"`
	VersionHash string        `json:"version_hash"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

// FieldByID returns the field with the given id, or nil.
func (s *FormSchema) FieldByID(fieldID string) *FieldRecord {
	for i := range s.Fields {
		if s.Fields[i].FieldID == fieldID {
			return &s.Fields[i]
		}
	}
	return nil
}

// FieldsBySection groups fields by section, preserving field order.
func (s *FormSchema) FieldsBySection() map[string][]FieldRecord {
	grouped := make(map[string][]FieldRecord)
	for _, f := range s.Fields {
		grouped[f.Section] = append(grouped[f.Section], f)
	}
	return grouped
}

// hashKey is the per-field identity that participates in the version hash.
// Position and mapping state deliberately do not.
type hashKey struct {
	FieldID      string    `json:"field_id"`
	FieldType    FieldType `json:"field_type"`
	Section      string    `json:"section"`
	DisplayLabel string    `json:"display_label"`
}

// ComputeVersionHash fingerprints a field list. The hash is a pure function
// of field identity and attributes: field ordering does not affect it, and
// any addition, removal, or attribute change produces a different value.
func ComputeVersionHash(fields []FieldRecord) string {
	keys := make([]hashKey, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, hashKey{
			FieldID:      f.FieldID,
			FieldType:    f.FieldType,
			Section:      f.Section,
			DisplayLabel: f.DisplayLabel,
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].FieldID < keys[j].FieldID })

	data, err := json.Marshal(keys)
	if err != nil {
		// Marshaling a slice of plain string structs cannot fail.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
