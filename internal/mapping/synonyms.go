package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Target names a dictionary field on a specific object.
type Target struct {
	Field  string `json:"field"`
	Object string `json:"object"`
}

// Synonyms maps lowercased form field labels to dictionary targets.
type Synonyms map[string]Target

// DefaultSynonyms returns the built-in label table covering the common
// wording variations on government forms.
func DefaultSynonyms() Synonyms {
	contact := func(field string) Target {
		return Target{Field: field, Object: "Contact"}
	}
	return Synonyms{
		"family name":               contact("LastName"),
		"last name":                 contact("LastName"),
		"surname":                   contact("LastName"),
		"given name":                contact("FirstName"),
		"first name":                contact("FirstName"),
		"date of birth":             contact("Birthdate"),
		"dob":                       contact("Birthdate"),
		"birth date":                contact("Birthdate"),
		"a number":                  contact("A_Number__c"),
		"a-number":                  contact("A_Number__c"),
		"alien registration number": contact("A_Number__c"),
		"gender":                    contact("Gender__c"),
		"sex":                       contact("Gender__c"),
		"marital status":            contact("Marital_status__c"),
		"country of nationality":    contact("Country__c"),
		"country of citizenship":    contact("Country__c"),
		"country of birth":          contact("Country__c"),
		"city of birth":             contact("City_of_Birth__c"),
		"place of birth":            contact("City_of_Birth__c"),
		"street":                    contact("MailingStreet"),
		"address":                   contact("MailingStreet"),
		"mailing address":           contact("MailingStreet"),
		"city":                      contact("MailingCity"),
		"state":                     contact("MailingState"),
		"province":                  contact("MailingState"),
		"zip":                       contact("MailingPostalCode"),
		"zip code":                  contact("MailingPostalCode"),
		"postal code":               contact("MailingPostalCode"),
		"phone":                     contact("Phone"),
		"telephone":                 contact("Phone"),
		"daytime phone":             contact("Phone"),
		"mobile":                    contact("MobilePhone"),
		"cell phone":                contact("MobilePhone"),
		"email":                     contact("Email"),
		"e-mail":                    contact("Email"),
		"email address":             contact("Email"),
		"language":                  contact("Best_Language__c"),
		"case number":               contact("CaseNumber__c"),
		"immigration status":        contact("Immigration_Status__c"),
		"spouse name":               contact("Spouse_Name__c"),
	}
}

// LoadSynonyms reads a JSON file of {"label": "Api_Name__c"} entries and
// merges it over the defaults. File entries win on collision and target the
// Contact object. A missing path returns the defaults unchanged.
func LoadSynonyms(path string) (Synonyms, error) {
	synonyms := DefaultSynonyms()
	if path == "" {
		return synonyms, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return synonyms, nil
		}
		return nil, fmt.Errorf("failed to read synonyms file: %w", err)
	}

	var overrides map[string]string
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file: %w", err)
	}
	for label, field := range overrides {
		synonyms[strings.ToLower(strings.TrimSpace(label))] = Target{
			Field:  field,
			Object: "Contact",
		}
	}
	return synonyms, nil
}
