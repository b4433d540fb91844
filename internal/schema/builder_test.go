package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleFields() []FieldRecord {
	return []FieldRecord{
		{
			FieldID:      "Pt1Line1a_FamilyName[0]",
			DisplayLabel: "Family Name",
			FieldType:    FieldTypeText,
			Section:      "Page 1",
			Page:         0,
			Rect:         []float64{10, 20, 110, 40},
		},
		{
			FieldID:      "Pt1Line1b_GivenName[0]",
			DisplayLabel: "Given Name",
			FieldType:    FieldTypeText,
			Section:      "Page 1",
			Page:         0,
		},
		{
			FieldID:      "Pt2Line4_Gender[0]",
			DisplayLabel: "Gender",
			FieldType:    FieldTypeSelect,
			Section:      "Page 2",
			Page:         1,
			Options:      []string{"Male", "Female"},
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	builder := NewBuilder()
	s := builder.Build(sampleFields(), "i-589", "", SourceFillable)

	assert.Equal(t, "i-589", s.FormID)
	assert.Equal(t, "i-589", s.Title, "title should default to form id")
	assert.Equal(t, SourceFillable, s.Source)
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, []string{"Page 1", "Page 2"}, s.Sections)
	assert.NotEmpty(t, s.VersionHash)
	assert.NotEmpty(t, s.CreatedAt)
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
}

func TestBuilder_Build_SkipsEmptySections(t *testing.T) {
	fields := []FieldRecord{
		{FieldID: "a", FieldType: FieldTypeText, Section: ""},
		{FieldID: "b", FieldType: FieldTypeText, Section: "Part A - About You"},
		{FieldID: "c", FieldType: FieldTypeText, Section: "Part A - About You"},
	}
	s := NewBuilder().Build(fields, "g-28", "Notice of Appearance", SourceFillable)

	assert.Equal(t, []string{"Part A - About You"}, s.Sections)
	assert.Equal(t, "Notice of Appearance", s.Title)
}

func TestComputeVersionHash_OrderInsensitive(t *testing.T) {
	fields := sampleFields()
	reversed := []FieldRecord{fields[2], fields[1], fields[0]}

	assert.Equal(t, ComputeVersionHash(fields), ComputeVersionHash(reversed),
		"hash must not depend on field ordering")
}

func TestComputeVersionHash_SensitiveToAttributes(t *testing.T) {
	base := sampleFields()
	hash := ComputeVersionHash(base)

	tests := []struct {
		name   string
		mutate func([]FieldRecord)
	}{
		{"field added", func(fs []FieldRecord) {}},
		{"label changed", func(fs []FieldRecord) { fs[0].DisplayLabel = "Surname" }},
		{"type changed", func(fs []FieldRecord) { fs[1].FieldType = FieldTypeTextarea }},
		{"section changed", func(fs []FieldRecord) { fs[2].Section = "Page 3" }},
		{"id changed", func(fs []FieldRecord) { fs[0].FieldID = "Pt1Line1a_Surname[0]" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := append([]FieldRecord(nil), base...)
			if tt.name == "field added" {
				mutated = append(mutated, FieldRecord{FieldID: "extra", FieldType: FieldTypeText})
			} else {
				tt.mutate(mutated)
			}
			assert.NotEqual(t, hash, ComputeVersionHash(mutated))
		})
	}
}

func TestComputeVersionHash_IgnoresPositionAndMappingState(t *testing.T) {
	base := sampleFields()
	moved := append([]FieldRecord(nil), base...)
	moved[0].Rect = []float64{0, 0, 1, 1}
	moved[0].Page = 5
	moved[0].TargetField = "LastName"
	moved[0].Role = RolePreparerName

	assert.Equal(t, ComputeVersionHash(base), ComputeVersionHash(moved),
		"position and mapping assignments must not affect the hash")
}
