// Package mapping reconciles extracted form fields against a contact
// dictionary through a tiered matcher and keeps the per-form mapping state.
package mapping

// MatchMethod says how a mapping suggestion was produced.
type MatchMethod string

const (
	MatchNone    MatchMethod = ""
	MatchExact   MatchMethod = "exact"
	MatchSynonym MatchMethod = "synonym"
	MatchHistory MatchMethod = "history"
	MatchFuzzy   MatchMethod = "fuzzy"
	MatchManual  MatchMethod = "manual"
)

// FieldMapping ties one form field to a dictionary field, with provenance.
type FieldMapping struct {
	FormID       string      `json:"form_id"`
	FieldID      string      `json:"field_id"`
	TargetObject string      `json:"target_object"`
	TargetField  string      `json:"target_field"`
	MatchMethod  MatchMethod `json:"match_method"`
	Confidence   float64     `json:"confidence"`
	Approved     bool        `json:"approved"`
	// Rejected keeps the discarded suggestion visible instead of blanking
	// it, so reviewers can see what was turned down.
	Rejected   bool   `json:"rejected,omitempty"`
	ApprovedBy string `json:"approved_by,omitempty"`
	ApprovedAt string `json:"approved_at,omitempty"`
}

// MappingSet is the mutable mapping state for one form. Unlike schemas it is
// not versioned; approvals and overrides edit it in place.
type MappingSet struct {
	FormID         string         `json:"form_id"`
	Mappings       []FieldMapping `json:"mappings"`
	LastAutoMapped string         `json:"last_auto_mapped"`
	Version        int            `json:"version"`
}

// Find returns the mapping for a field id, or nil.
func (ms *MappingSet) Find(fieldID string) *FieldMapping {
	for i := range ms.Mappings {
		if ms.Mappings[i].FieldID == fieldID {
			return &ms.Mappings[i]
		}
	}
	return nil
}

// Unmatched returns the field ids that have no target.
func (ms *MappingSet) Unmatched() []string {
	var ids []string
	for _, m := range ms.Mappings {
		if m.TargetField == "" {
			ids = append(ids, m.FieldID)
		}
	}
	return ids
}

// Pending returns mappings with a target that are neither approved nor
// rejected.
func (ms *MappingSet) Pending() []FieldMapping {
	var out []FieldMapping
	for _, m := range ms.Mappings {
		if m.TargetField != "" && !m.Approved && !m.Rejected {
			out = append(out, m)
		}
	}
	return out
}

// ApprovedMappings returns the approved subset.
func (ms *MappingSet) ApprovedMappings() []FieldMapping {
	var out []FieldMapping
	for _, m := range ms.Mappings {
		if m.Approved {
			out = append(out, m)
		}
	}
	return out
}
