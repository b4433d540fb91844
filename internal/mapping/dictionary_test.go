package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDictionary_DescribeFields(t *testing.T) {
	dict := NewStaticDictionary()

	fields, err := dict.DescribeFields("Contact")
	require.NoError(t, err)
	assert.NotEmpty(t, fields)

	byAPI := make(map[string]DictField)
	for _, f := range fields {
		byAPI[f.APIName] = f
	}
	assert.Equal(t, "Last Name", byAPI["LastName"].Label)
	assert.Equal(t, DictTypeDate, byAPI["Birthdate"].Type)
	assert.Equal(t, DictTypePicklist, byAPI["Gender__c"].Type)

	unknown, err := dict.DescribeFields("Contact_Plus__c")
	require.NoError(t, err)
	assert.Empty(t, unknown, "unknown objects are empty, not errors")
}

func TestStaticDictionary_CreateField(t *testing.T) {
	dict := NewStaticDictionary()

	err := dict.CreateField("Contact", DictField{APIName: "Visa_Type__c", Label: "Visa Type"})
	require.NoError(t, err)

	fields, err := dict.DescribeFields("Contact")
	require.NoError(t, err)
	var created *DictField
	for i := range fields {
		if fields[i].APIName == "Visa_Type__c" {
			created = &fields[i]
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, DictTypeString, created.Type, "type defaults to string")
	assert.True(t, created.Updateable)

	err = dict.CreateField("Contact", DictField{APIName: "Visa_Type__c", Label: "Visa Type"})
	assert.Error(t, err, "duplicate api names are rejected")

	assert.Error(t, dict.CreateField("Contact", DictField{Label: "No API Name"}))
	assert.Error(t, dict.CreateField("Contact", DictField{APIName: "No_Label__c"}))
}

type countingDictionary struct {
	describes int
}

func (d *countingDictionary) DescribeFields(object string) ([]DictField, error) {
	d.describes++
	if object == "Broken" {
		return nil, errors.New("boom")
	}
	return []DictField{{APIName: "LastName", Label: "Last Name", Type: DictTypeString}}, nil
}

func (d *countingDictionary) CreateField(string, DictField) error { return nil }

func TestCachedDictionary(t *testing.T) {
	inner := &countingDictionary{}
	dict := NewCachedDictionary(inner)

	for i := 0; i < 3; i++ {
		fields, err := dict.DescribeFields("Contact")
		require.NoError(t, err)
		assert.Len(t, fields, 1)
	}
	assert.Equal(t, 1, inner.describes, "repeat describes are served from cache")

	// Errors are not cached.
	_, err := dict.DescribeFields("Broken")
	assert.Error(t, err)
	_, err = dict.DescribeFields("Broken")
	assert.Error(t, err)
	assert.Equal(t, 3, inner.describes)

	// Creating a field invalidates the object's cache.
	require.NoError(t, dict.CreateField("Contact", DictField{APIName: "X__c", Label: "X"}))
	_, err = dict.DescribeFields("Contact")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.describes)
}

func TestLoadDictionary(t *testing.T) {
	// Empty and missing paths fall back to the built-in catalog.
	fallback, err := LoadDictionary("")
	require.NoError(t, err)
	fields, err := fallback.DescribeFields("Contact")
	require.NoError(t, err)
	assert.NotEmpty(t, fields)

	missing, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	fields, err = missing.DescribeFields("Contact")
	require.NoError(t, err)
	assert.NotEmpty(t, fields)

	path := filepath.Join(t.TempDir(), "dictionary.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"Contact": [
			{"api_name": "LastName", "label": "Last Name", "type": "string", "updateable": true}
		],
		"Case__c": [
			{"api_name": "Court__c", "label": "Immigration Court", "type": "picklist", "updateable": true}
		]
	}`), 0o600))

	dict, err := LoadDictionary(path)
	require.NoError(t, err)

	contact, err := dict.DescribeFields("Contact")
	require.NoError(t, err)
	require.Len(t, contact, 1, "file catalog replaces the built-in one")
	assert.Equal(t, "LastName", contact[0].APIName)

	custom, err := dict.DescribeFields("Case__c")
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, DictTypePicklist, custom[0].Type)

	// Runtime field creation still works on a file-backed catalog.
	require.NoError(t, dict.CreateField("Case__c", DictField{APIName: "Venue__c", Label: "Venue"}))
	custom, err = dict.DescribeFields("Case__c")
	require.NoError(t, err)
	assert.Len(t, custom, 2)

	// A file holding only JSON null loads as an empty catalog that still
	// accepts new fields.
	null := filepath.Join(t.TempDir(), "null.json")
	require.NoError(t, os.WriteFile(null, []byte("null"), 0o600))
	empty, err := LoadDictionary(null)
	require.NoError(t, err)
	fields, err = empty.DescribeFields("Contact")
	require.NoError(t, err)
	assert.Empty(t, fields)
	require.NoError(t, empty.CreateField("Contact", DictField{APIName: "LastName", Label: "Last Name"}))
	fields, err = empty.DescribeFields("Contact")
	require.NoError(t, err)
	assert.Len(t, fields, 1)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = LoadDictionary(bad)
	assert.Error(t, err)

	incomplete := filepath.Join(t.TempDir(), "incomplete.json")
	require.NoError(t, os.WriteFile(incomplete,
		[]byte(`{"Contact": [{"label": "No API Name"}]}`), 0o600))
	_, err = LoadDictionary(incomplete)
	assert.Error(t, err)
}

func TestLoadSynonyms(t *testing.T) {
	defaults, err := LoadSynonyms("")
	require.NoError(t, err)
	assert.Equal(t, Target{Field: "LastName", Object: "Contact"}, defaults["family name"])

	path := filepath.Join(t.TempDir(), "synonyms.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"Visa Type": "Visa_Type__c", "family name": "Surname__c"}`), 0o600))

	merged, err := LoadSynonyms(path)
	require.NoError(t, err)
	assert.Equal(t, Target{Field: "Visa_Type__c", Object: "Contact"}, merged["visa type"])
	assert.Equal(t, Target{Field: "Surname__c", Object: "Contact"}, merged["family name"],
		"file entries win over defaults")
	assert.Equal(t, Target{Field: "FirstName", Object: "Contact"}, merged["given name"],
		"untouched defaults survive")

	missing, err := LoadSynonyms(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSynonyms(), missing)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = LoadSynonyms(bad)
	assert.Error(t, err)
}
