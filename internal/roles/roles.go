// Package roles tags extracted form fields with the party they belong to.
// Applicant fields receive a dictionary target directly; preparer and
// attorney fields receive a role so the reconciliation engine leaves them
// alone.
package roles

import (
	"strings"

	"go.uber.org/zap"

	"github.com/fieldline/fieldline/internal/pdf"
	"github.com/fieldline/fieldline/internal/schema"
)

// Classifier applies keyword and positional heuristics to field records.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a role classifier.
func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger}
}

// partyContext is who a field belongs to, decided before pattern matching.
type partyContext int

const (
	contextApplicant partyContext = iota
	contextPreparer
	contextAttorney
	// contextUnknown covers late-page fields on long forms: not applicant,
	// but with no signal for preparer vs attorney either.
	contextUnknown
)

// Classify assigns roles and target fields in place and returns how many
// fields were tagged. Fields that already carry a role or target are never
// overwritten, so re-running the classifier is safe.
func (c *Classifier) Classify(fields []schema.FieldRecord) int {
	if len(fields) == 0 {
		return 0
	}

	maxPage := 0
	for _, f := range fields {
		if f.Page > maxPage {
			maxPage = f.Page
		}
	}

	tagged := 0
	for i := range fields {
		field := &fields[i]
		if field.Role != schema.RoleNone || field.TargetField != "" {
			continue
		}

		party := c.partyOf(field, maxPage)
		role, target := suggest(strings.ToLower(field.DisplayLabel), party)
		if role != schema.RoleNone {
			field.Role = role
			tagged++
		}
		if target != "" {
			field.TargetField = target
			tagged++
		}
	}
	return tagged
}

// partyOf decides the field's party. Government forms put applicant data in
// the early parts and preparer/attorney blocks in part 6 and later, usually
// on the final pages.
func (c *Classifier) partyOf(field *schema.FieldRecord, maxPage int) partyContext {
	label := strings.ToLower(field.DisplayLabel)
	raw := strings.ToLower(field.FieldID)

	switch {
	case strings.Contains(label, "preparer") || strings.Contains(raw, "preparer"):
		return contextPreparer
	case strings.Contains(label, "attorney") || strings.Contains(raw, "attorney") ||
		strings.Contains(raw, "representative"):
		return contextAttorney
	case pdf.PartNumber(field.FieldID) >= 6:
		return contextPreparer
	case field.Page >= maxPage-1 && maxPage >= 2:
		// The last two pages of a form running three or more pages hold
		// signature and preparer blocks, not applicant data.
		return contextUnknown
	}
	return contextApplicant
}

// suggest matches a lowercased display label against the known patterns and
// returns a role for preparer/attorney fields or a dictionary target for
// applicant fields. First match wins; order mirrors how ambiguous labels
// must resolve (city of birth before mailing city, and so on).
func suggest(label string, party partyContext) (schema.Role, string) {
	applicant := party == contextApplicant
	preparer := party == contextPreparer
	attorney := party == contextAttorney

	switch {
	case containsAny(label, "family name", "last name", "surname"):
		switch {
		case preparer:
			return schema.RolePreparerName, ""
		case attorney:
			return schema.RoleAttorneyName, ""
		}
		return schema.RoleNone, "LastName"

	case containsAny(label, "given name", "first name") && !strings.Contains(label, "middle"):
		switch {
		case preparer:
			return schema.RolePreparerName, ""
		case attorney:
			return schema.RoleAttorneyName, ""
		}
		return schema.RoleNone, "FirstName"

	case strings.Contains(label, "middle name"):
		// No dictionary equivalent.
		return schema.RoleNone, ""

	case containsAny(label, "date of birth", "dob", "birth date"):
		if applicant {
			return schema.RoleNone, "Birthdate"
		}

	case (strings.Contains(label, "alien") && strings.Contains(label, "number")) ||
		containsAny(label, "a number", "a-number"):
		if applicant {
			return schema.RoleNone, "A_Number__c"
		}

	case containsAny(label, "ssn", "social security"):
		// No dictionary equivalent.
		return schema.RoleNone, ""

	case containsAny(label, "gender", "sex") && !strings.Contains(label, "marital"):
		if applicant {
			return schema.RoleNone, "Gender__c"
		}

	case strings.Contains(label, "marital"):
		if applicant {
			return schema.RoleNone, "Marital_status__c"
		}

	case strings.Contains(label, "country") &&
		(strings.Contains(label, "nationality") || strings.Contains(label, "citizenship")):
		if applicant {
			return schema.RoleNone, "Country__c"
		}

	case strings.Contains(label, "country") && strings.Contains(label, "birth"):
		if applicant {
			return schema.RoleNone, "Country__c"
		}

	case (strings.Contains(label, "city") && strings.Contains(label, "birth")) ||
		strings.Contains(label, "place of birth"):
		if applicant {
			return schema.RoleNone, "City_of_Birth__c"
		}

	case containsAny(label, "street", "address") && !strings.Contains(label, "email") && !strings.Contains(label, "e-mail"):
		switch {
		case preparer:
			return schema.RolePreparerAddress, ""
		case attorney:
			return schema.RoleAttorneyAddress, ""
		case applicant:
			return schema.RoleNone, "MailingStreet"
		}

	case strings.Contains(label, "city") && !strings.Contains(label, "birth"):
		if applicant {
			return schema.RoleNone, "MailingCity"
		}

	case containsAny(label, "state", "province") && !strings.Contains(label, "united states"):
		if applicant {
			return schema.RoleNone, "MailingState"
		}

	case containsAny(label, "zip", "postal"):
		if applicant {
			return schema.RoleNone, "MailingPostalCode"
		}

	case containsAny(label, "daytime phone", "phone", "telephone") &&
		!strings.Contains(label, "mobile") && !strings.Contains(label, "cell"):
		switch {
		case preparer:
			return schema.RolePreparerPhone, ""
		case attorney:
			return schema.RoleAttorneyPhone, ""
		case applicant:
			return schema.RoleNone, "Phone"
		}

	case containsAny(label, "mobile", "cell"):
		if applicant {
			return schema.RoleNone, "MobilePhone"
		}

	case strings.Contains(label, "email") || strings.Contains(label, "e-mail"):
		switch {
		case preparer:
			return schema.RolePreparerEmail, ""
		case attorney:
			return schema.RoleAttorneyEmail, ""
		case applicant:
			return schema.RoleNone, "Email"
		}

	case containsAny(label, "bar number", "uscis account", "attorney id"):
		switch {
		case attorney:
			return schema.RoleAttorneyBarNumber, ""
		case preparer:
			return schema.RolePreparerBarNumber, ""
		}

	case containsAny(label, "firm", "organization", "company"):
		switch {
		case preparer:
			return schema.RolePreparerFirm, ""
		case attorney:
			return schema.RoleAttorneyFirm, ""
		}

	case strings.Contains(label, "print name") || strings.Contains(label, "full name"):
		switch {
		case preparer:
			return schema.RolePreparerName, ""
		case attorney:
			return schema.RoleAttorneyName, ""
		}

	case containsAny(label, "attorney or representative", "attorney name"):
		return schema.RoleAttorneyName, ""

	case strings.Contains(label, "language"):
		if applicant {
			return schema.RoleNone, "Best_Language__c"
		}
	}

	return schema.RoleNone, ""
}

func containsAny(text string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
