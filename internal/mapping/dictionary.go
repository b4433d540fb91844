package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrDictionaryUnavailable signals that the contact dictionary could not be
// reached. Ingestion treats it as a warning, not a failure.
var ErrDictionaryUnavailable = errors.New("contact dictionary unavailable")

// Dictionary field types the matcher understands.
const (
	DictTypeString   = "string"
	DictTypeTextarea = "textarea"
	DictTypeDate     = "date"
	DictTypeDateTime = "datetime"
	DictTypePicklist = "picklist"
	DictTypeBoolean  = "boolean"
	DictTypeEmail    = "email"
	DictTypePhone    = "phone"
)

// DictField describes one field on a dictionary object.
type DictField struct {
	APIName    string `json:"api_name"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Updateable bool   `json:"updateable"`
}

// Dictionary is the contact registry that form fields map onto. Live
// backends describe their objects over the wire; the static fallback serves
// a built-in catalog.
type Dictionary interface {
	DescribeFields(object string) ([]DictField, error)
	CreateField(object string, field DictField) error
}

// DefaultObjects is the object search order: the primary contact object
// first, then the custom overflow objects.
func DefaultObjects() []string {
	return []string{"Contact", "Contact_Plus__c", "Contact_Plus_1__c"}
}

// StaticDictionary is the offline fallback catalog. It carries the known
// Contact fields and accepts new fields in memory only.
type StaticDictionary struct {
	mu      sync.RWMutex
	objects map[string][]DictField
}

// NewStaticDictionary returns a dictionary preloaded with the Contact
// catalog.
func NewStaticDictionary() *StaticDictionary {
	return &StaticDictionary{
		objects: map[string][]DictField{
			"Contact": contactCatalog(),
		},
	}
}

// DescribeFields returns the fields of an object. Unknown objects are empty,
// not errors, so the matcher can search a configured object list freely.
func (d *StaticDictionary) DescribeFields(object string) ([]DictField, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fields := d.objects[object]
	out := make([]DictField, len(fields))
	copy(out, fields)
	return out, nil
}

// CreateField registers a new field on an object.
func (d *StaticDictionary) CreateField(object string, field DictField) error {
	if field.APIName == "" {
		return fmt.Errorf("field api name cannot be empty")
	}
	if field.Label == "" {
		return fmt.Errorf("field label cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.objects[object] {
		if existing.APIName == field.APIName {
			return fmt.Errorf("field %s already exists on %s", field.APIName, object)
		}
	}
	if field.Type == "" {
		field.Type = DictTypeString
	}
	field.Updateable = true
	d.objects[object] = append(d.objects[object], field)
	return nil
}

// CachedDictionary memoizes describe calls around a slower backend. Field
// creation invalidates the affected object.
type CachedDictionary struct {
	inner Dictionary

	mu    sync.Mutex
	cache map[string][]DictField
}

// NewCachedDictionary wraps a dictionary with a describe cache.
func NewCachedDictionary(inner Dictionary) *CachedDictionary {
	return &CachedDictionary{
		inner: inner,
		cache: make(map[string][]DictField),
	}
}

func (c *CachedDictionary) DescribeFields(object string) ([]DictField, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fields, ok := c.cache[object]; ok {
		out := make([]DictField, len(fields))
		copy(out, fields)
		return out, nil
	}
	fields, err := c.inner.DescribeFields(object)
	if err != nil {
		return nil, err
	}
	c.cache[object] = fields
	out := make([]DictField, len(fields))
	copy(out, fields)
	return out, nil
}

func (c *CachedDictionary) CreateField(object string, field DictField) error {
	if err := c.inner.CreateField(object, field); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.cache, object)
	c.mu.Unlock()
	return nil
}

// LoadDictionary reads a JSON file of {"Object": [{api_name, label, type,
// updateable}, ...]} and returns a dictionary serving those objects. An empty
// or missing path falls back to the built-in Contact catalog. Fields created
// at runtime live in memory only; the file is never written back.
func LoadDictionary(path string) (*StaticDictionary, error) {
	if path == "" {
		return NewStaticDictionary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStaticDictionary(), nil
		}
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}

	var objects map[string][]DictField
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file: %w", err)
	}
	// A file holding JSON null unmarshals to a nil map; CreateField needs a
	// real one.
	if objects == nil {
		objects = map[string][]DictField{}
	}
	for object, fields := range objects {
		if object == "" {
			return nil, fmt.Errorf("dictionary file contains an unnamed object")
		}
		for _, f := range fields {
			if f.APIName == "" {
				return nil, fmt.Errorf("dictionary object %s contains a field without api_name", object)
			}
		}
	}
	return &StaticDictionary{objects: objects}, nil
}

func contactCatalog() []DictField {
	type entry struct {
		api, label, typ string
	}
	entries := []entry{
		{"FirstName", "First Name", DictTypeString},
		{"LastName", "Last Name", DictTypeString},
		{"A_Number__c", "A-Number", DictTypeString},
		{"Birthdate", "Date of Birth", DictTypeDate},
		{"Gender__c", "Gender", DictTypePicklist},
		{"Country__c", "Country", DictTypeString},
		{"Pronoun__c", "Pronoun", DictTypePicklist},
		{"Email", "Email", DictTypeEmail},
		{"MobilePhone", "Mobile Phone", DictTypePhone},
		{"Phone", "Phone", DictTypePhone},
		{"MailingStreet", "Mailing Street", DictTypeTextarea},
		{"MailingCity", "Mailing City", DictTypeString},
		{"MailingState", "Mailing State", DictTypeString},
		{"MailingPostalCode", "Mailing ZIP", DictTypeString},
		{"MailingCountry", "Mailing Country", DictTypeString},
		{"Immigration_Status__c", "Immigration Status", DictTypePicklist},
		{"Immigration_Court__c", "Immigration Court", DictTypeString},
		{"Legal_Case_Type__c", "Legal Case Type", DictTypePicklist},
		{"Client_Status__c", "Client Status", DictTypePicklist},
		{"Date_of_Most_Recent_US_Entry__c", "Last Entry Date", DictTypeDate},
		{"Status_of_Last_Arrival__c", "Status of Last Arrival", DictTypeString},
		{"Place_of_Last_Arrival__c", "Place of Last Arrival", DictTypeString},
		{"Date_of_First_Entry_to_US__c", "First Entry Date", DictTypeDate},
		{"Best_Language__c", "Best Language", DictTypeString},
		{"Marital_status__c", "Marital Status", DictTypePicklist},
		{"Spouse_Name__c", "Spouse Name", DictTypeString},
		{"Mother_s_First_Name__c", "Mother's First Name", DictTypeString},
		{"Mother_s_Last_Name__c", "Mother's Last Name", DictTypeString},
		{"Father_s_First_Name__c", "Father's First Name", DictTypeString},
		{"Father_s_Last_Name__c", "Father's Last Name", DictTypeString},
		{"City_of_Birth__c", "City of Birth", DictTypeString},
		{"CaseNumber__c", "Case Number", DictTypeString},
		{"Client_Case_Strategy__c", "Case Strategy", DictTypeTextarea},
		{"Nexus__c", "Nexus", DictTypeString},
		{"PSG__c", "Particular Social Group", DictTypeString},
		{"Box_Folder_Id__c", "Box Folder ID", DictTypeString},
	}

	fields := make([]DictField, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, DictField{
			APIName:    e.api,
			Label:      e.label,
			Type:       e.typ,
			Updateable: true,
		})
	}
	return fields
}
