package pdf

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// USCIS-style widget tooltips follow a loose grammar:
//
//	Part. A. 1. Information About You. 5. Enter First Name.
//
// where the segment before the last sentence names the part and section and
// the final sentence describes the field.
var (
	tooltipPartPattern = regexp.MustCompile(`(?i)^Part\.?\s*([A-Z]+)\.?\s*(\d+)?\.?\s*([^.]+(?:\([^)]*\))?)\.\s*(.+)$`)
	tooltipLinePattern = regexp.MustCompile(`^(\d+[a-z]?)\.?\s*(.+)$`)

	arrayIndexPattern = regexp.MustCompile(`\[\d+\]$`)
	partLinePrefix    = regexp.MustCompile(`^Pt\d+Line\d+[a-z]?_?`)
	linePrefix        = regexp.MustCompile(`^Line\d+[a-z]?_?`)
	camelBoundary     = regexp.MustCompile(`([a-z])([A-Z])`)
	acronymBoundary   = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	multiSpace        = regexp.MustCompile(`\s+`)
	partNumberPattern = regexp.MustCompile(`Pt(\d+)`)
)

// ParseTooltip derives a display label and section from a widget's /TU
// string. When the tooltip is empty or does not match the grammar, the label
// falls back to LabelFromFieldName and the section is left empty for the
// caller to default.
func ParseTooltip(tooltip, rawName string) (label, section string) {
	if tooltip == "" {
		return LabelFromFieldName(rawName), ""
	}

	cleaned := strings.TrimSpace(tooltip)
	cleaned = strings.TrimRight(cleaned, ".")
	label = cleaned

	if m := tooltipPartPattern.FindStringSubmatch(cleaned); m != nil {
		partLetter := strings.ToUpper(m[1])
		partNum := m[2]
		sectionTitle := strings.TrimSpace(m[3])
		remainder := strings.TrimSpace(m[4])

		section = "Part " + partLetter
		if partNum != "" {
			section += "." + partNum
		}
		section += " - " + sectionTitle

		// The remainder may carry a leading line number ("5. Enter ...").
		if lm := tooltipLinePattern.FindStringSubmatch(remainder); lm != nil {
			label = strings.TrimRight(strings.TrimSpace(lm[2]), ".")
		} else {
			label = strings.TrimRight(remainder, ".")
		}
	}

	for _, prefix := range []string{"Enter ", "Select "} {
		if strings.HasPrefix(label, prefix) && len(label) > len(prefix)+3 {
			label = label[len(prefix):]
		}
	}

	if label == strings.ToLower(label) || label == strings.ToUpper(label) {
		label = titleCase(label)
	}

	return label, section
}

// LabelFromFieldName derives a human-readable label from a raw AcroForm
// field identifier.
//
//	form1[0].#subform[0].Pt1Line1a_FamilyName[0]  ->  Family Name
//	Line4a_StreetNumberAndName                    ->  Street Number And Name
//	USCISOnlineAcctNumber[0]                      ->  USCIS Online Acct Number
func LabelFromFieldName(rawName string) string {
	// Keep only the last dot-separated segment and drop the array index.
	name := rawName
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	name = arrayIndexPattern.ReplaceAllString(name, "")

	stripped := partLinePrefix.ReplaceAllString(name, "")
	stripped = linePrefix.ReplaceAllString(stripped, "")
	if strings.TrimSpace(stripped) != "" {
		name = stripped
	}

	name = strings.Trim(name, "_")
	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	name = acronymBoundary.ReplaceAllString(name, "$1 $2")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(multiSpace.ReplaceAllString(name, " "))

	if name == "" {
		return rawName
	}
	return titleCase(name)
}

// PartNumber extracts the USCIS part number from a raw field identifier
// (Pt6Line2_... -> 6). Returns 0 when no part marker is present.
func PartNumber(rawName string) int {
	m := partNumberPattern.FindStringSubmatch(rawName)
	if m == nil {
		return 0
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return n
}

// titleCase uppercases the first letter of each space-separated word,
// leaving all-caps words (acronyms) intact.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == strings.ToUpper(w) && utf8.RuneCountInString(w) > 1 {
			continue
		}
		first, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
