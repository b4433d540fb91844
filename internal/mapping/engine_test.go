package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/schema"
)

type failingDictionary struct{}

func (failingDictionary) DescribeFields(string) ([]DictField, error) {
	return nil, errors.New("connection refused")
}

func (failingDictionary) CreateField(string, DictField) error {
	return errors.New("connection refused")
}

type staticHistory map[string]string

func (h staticHistory) ApprovedTargets() map[string]string { return h }

func newTestEngine(history HistoryProvider) *Engine {
	return NewEngine(NewStaticDictionary(), history, EngineConfig{}, zap.NewNop())
}

func TestEngine_ExactMatch(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "Pt2Line5_City[0]", DisplayLabel: "Mailing City", FieldType: schema.FieldTypeText},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)

	m := set.Mappings[0]
	assert.Equal(t, "MailingCity", m.TargetField)
	assert.Equal(t, "Contact", m.TargetObject)
	assert.Equal(t, MatchExact, m.MatchMethod)
	assert.Equal(t, 1.0, m.Confidence)
	assert.False(t, m.Approved)
}

func TestEngine_SynonymMatch(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "f1", DisplayLabel: "Surname", FieldType: schema.FieldTypeText},
		{FieldID: "f2", DisplayLabel: "Alien Registration Number", FieldType: schema.FieldTypeText},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 2)

	assert.Equal(t, "LastName", set.Mappings[0].TargetField)
	assert.Equal(t, MatchSynonym, set.Mappings[0].MatchMethod)
	assert.Equal(t, 0.95, set.Mappings[0].Confidence)
	assert.Equal(t, "A_Number__c", set.Mappings[1].TargetField)
}

func TestEngine_HistoryMatch(t *testing.T) {
	history := staticHistory{"pt9line1_oddlynamed[0]": "Nexus__c"}
	engine := newTestEngine(history)
	fields := []schema.FieldRecord{
		{FieldID: "Pt9Line1_OddlyNamed[0]", DisplayLabel: "Oddly Named Thing", FieldType: schema.FieldTypeText},
	}

	set, err := engine.AutoMap(fields, "i-130")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)

	assert.Equal(t, "Nexus__c", set.Mappings[0].TargetField)
	assert.Equal(t, MatchHistory, set.Mappings[0].MatchMethod)
	assert.Equal(t, 0.85, set.Mappings[0].Confidence)
}

func TestEngine_FuzzyMatchCarriesRawSimilarity(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		// One character off from the "Mailing Street" label.
		{FieldID: "f1", DisplayLabel: "Mailing Stret", FieldType: schema.FieldTypeText},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)

	m := set.Mappings[0]
	assert.Equal(t, "MailingStreet", m.TargetField)
	assert.Equal(t, MatchFuzzy, m.MatchMethod)
	assert.GreaterOrEqual(t, m.Confidence, DefaultFuzzyThreshold)
	assert.Less(t, m.Confidence, 1.0)
}

func TestEngine_UnmatchedBelowThreshold(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "f1", DisplayLabel: "Explain Your Claim In Detail", FieldType: schema.FieldTypeTextarea},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)

	m := set.Mappings[0]
	assert.Empty(t, m.TargetField)
	assert.Equal(t, MatchNone, m.MatchMethod)
	assert.Zero(t, m.Confidence)
}

func TestEngine_SkipsRoleTaggedFields(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "f1", DisplayLabel: "Family Name", FieldType: schema.FieldTypeText, Role: schema.RolePreparerName},
		{FieldID: "f2", DisplayLabel: "Family Name", FieldType: schema.FieldTypeText},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)
	assert.Equal(t, "f2", set.Mappings[0].FieldID)
}

func TestEngine_PreassignedTargetVerifiedAsExact(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "Pt1Line1a_FamilyName[0]", DisplayLabel: "Family Name",
			FieldType: schema.FieldTypeText, TargetField: "LastName"},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)

	// The dictionary describes LastName with a compatible type, so the
	// keyword suggestion is confirmed as an exact match.
	m := set.Mappings[0]
	assert.Equal(t, "LastName", m.TargetField)
	assert.Equal(t, "Contact", m.TargetObject)
	assert.Equal(t, MatchExact, m.MatchMethod)
	assert.Equal(t, 1.0, m.Confidence)
}

func TestEngine_PreassignedTargetOutsideDictionaryKeepsKeywordBand(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "f1", DisplayLabel: "Family Name", FieldType: schema.FieldTypeText,
			TargetField: "Legacy_Surname__c"},
		// Described target, but a checkbox cannot hold a string.
		{FieldID: "f2", DisplayLabel: "Family Name", FieldType: schema.FieldTypeCheckbox,
			TargetField: "LastName"},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 2)

	for _, m := range set.Mappings {
		assert.Equal(t, MatchSynonym, m.MatchMethod)
		assert.Equal(t, 0.95, m.Confidence)
	}
	assert.Equal(t, "Legacy_Surname__c", set.Mappings[0].TargetField)
	assert.Equal(t, "LastName", set.Mappings[1].TargetField)
}

func TestEngine_TypeFilterBlocksIncompatibleMatches(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		// Exact label for a picklist, but a checkbox can only hold a boolean.
		{FieldID: "f1", DisplayLabel: "Gender", FieldType: schema.FieldTypeCheckbox},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)
	assert.Empty(t, set.Mappings[0].TargetField)
}

func TestEngine_DateFieldsOnlyMatchDateTargets(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []schema.FieldRecord{
		{FieldID: "f1", DisplayLabel: "Date of Birth", FieldType: schema.FieldTypeDate},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.NoError(t, err)
	require.Len(t, set.Mappings, 1)
	assert.Equal(t, "Birthdate", set.Mappings[0].TargetField)
	assert.Equal(t, MatchExact, set.Mappings[0].MatchMethod)
}

func TestEngine_DictionaryUnavailable(t *testing.T) {
	engine := NewEngine(failingDictionary{}, nil, EngineConfig{}, zap.NewNop())
	fields := []schema.FieldRecord{
		{FieldID: "f1", DisplayLabel: "Family Name", FieldType: schema.FieldTypeText},
		{FieldID: "f2", DisplayLabel: "Email", FieldType: schema.FieldTypeText},
	}

	set, err := engine.AutoMap(fields, "i-589")
	require.ErrorIs(t, err, ErrDictionaryUnavailable)

	require.Len(t, set.Mappings, 2, "the set is still produced")
	for _, m := range set.Mappings {
		assert.Empty(t, m.TargetField)
		assert.Equal(t, MatchNone, m.MatchMethod)
	}
}

func TestTypeCompatible(t *testing.T) {
	tests := []struct {
		fieldType schema.FieldType
		dictType  string
		want      bool
	}{
		{schema.FieldTypeCheckbox, DictTypeBoolean, true},
		{schema.FieldTypeCheckbox, DictTypeString, false},
		{schema.FieldTypeDate, DictTypeDate, true},
		{schema.FieldTypeDate, DictTypeDateTime, true},
		{schema.FieldTypeDate, DictTypeString, false},
		{schema.FieldTypeSelect, DictTypePicklist, true},
		{schema.FieldTypeSelect, DictTypeString, true},
		{schema.FieldTypeSelect, DictTypeDate, false},
		{schema.FieldTypeText, DictTypeString, true},
		{schema.FieldTypeText, DictTypeDate, true},
		{schema.FieldTypeText, DictTypeBoolean, false},
		{schema.FieldTypeTextarea, "", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, typeCompatible(tt.fieldType, tt.dictType),
			"%s vs %s", tt.fieldType, tt.dictType)
	}
}
