package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Ingestion tools
	FormIngestDescription = `Ingest a PDF form: classify it, extract its fields, version the schema, and auto-map fields to the contact dictionary.

**When to use:** A new form template arrives, or an agency publishes a revised edition of an existing form.

**Why it's useful:** One call produces the full pipeline output: a versioned schema, role tags for preparer/attorney fields, and confidence-scored mapping suggestions ready for review.

**Examples:**
• First ingestion: "Ingest i-589.pdf as form i-589"
• Form revision: "Re-ingest the new edition of i-130 and show what changed"

**Common workflows:**
1. New form: form_ingest → mapping_list → mapping_approve / mapping_override
2. Revision: form_ingest → form_versions_diff → review carried-forward approvals

**Best practices:** Use a stable form_id across editions so versions and approvals line up. Scanned PDFs ingest without error but produce an empty schema.`

	FormSchemaGetDescription = `Retrieve a stored form schema, either the latest version or a specific one.

**When to use:** Need the field inventory of a form: identifiers, labels, types, sections, roles.

**Examples:**
• "Show the latest schema for i-589"
• "Show version 2 of i-130 to compare against what we shipped"`

	FormSchemaListDescription = `List every known form with its latest schema version.

**When to use:** Getting an overview of the form catalog, or finding the exact form_id to use with other tools.`

	FormVersionsDiffDescription = `Compare two stored versions of a form's schema.

**When to use:** After re-ingesting a revised form edition, to see exactly which fields were added, removed, or changed.

**Why it's useful:** Renamed controls show up as a removal plus an addition, so reviewers know which approvals need to be redone.

**Examples:**
• "Diff i-589 version 1 against version 3"`

	// Mapping review tools
	MappingListDescription = `Show the mapping state for a form: suggested targets, confidence, method, and review status per field.

**When to use:** Starting a mapping review session, or checking which fields are still unmatched.`

	MappingApproveDescription = `Approve a suggested field mapping.

**When to use:** A reviewer confirmed that the suggested dictionary target is correct.

**Best practices:** Approvals feed the history matcher, so approving common fields improves future auto-mapping across all forms.`

	MappingRejectDescription = `Reject a suggested field mapping.

**When to use:** The suggestion is wrong. The rejected target stays visible on the record so later reviewers can see what was turned down.`

	MappingOverrideDescription = `Manually map a field to a specific dictionary target and approve it in one step.

**When to use:** The matcher suggested nothing (or the wrong thing) and the reviewer knows the correct target.

**Examples:**
• "Map Pt7Line3_Unknown[0] on i-589 to PSG__c"`

	MappingBulkApproveDescription = `Approve every pending mapping on a form at or above a confidence threshold.

**When to use:** After spot-checking a form's suggestions, to clear the high-confidence tail in one step.

**Best practices:** The default threshold only picks up exact and synonym matches. Rejected mappings are never picked up.`

	// Dictionary tools
	DictionaryDescribeDescription = `List the fields available on a contact dictionary object.

**When to use:** Looking up the exact API name and type of a dictionary field before an override or field creation.`

	DictionaryFieldCreateDescription = `Create a new field on a contact dictionary object.

**When to use:** A form captures data the dictionary has no home for yet.

**Best practices:** Create the field first, then use mapping_override to point the form field at it.`

	// Audit and info tools
	AuditRecentDescription = `Show recent audit trail entries, newest first, optionally filtered to one form.

**When to use:** Reviewing who approved what and when, or tracing how a form reached its current mapping state.`

	ServerInfoDescription = `Get server information, available tools, storage locations, and usage guidance.

**When to use:** Discovering capabilities, checking configuration, or troubleshooting setup.`
)
