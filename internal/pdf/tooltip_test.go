package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTooltip(t *testing.T) {
	tests := []struct {
		name        string
		tooltip     string
		rawName     string
		wantLabel   string
		wantSection string
	}{
		{
			name:        "full grammar with part number",
			tooltip:     "Part. A. 1. Information About You. 5. Enter First Name.",
			rawName:     "Pt1Line5_FirstName[0]",
			wantLabel:   "First Name",
			wantSection: "Part A.1 - Information About You",
		},
		{
			name:        "grammar without part number",
			tooltip:     "Part. B. Contact Information. 2. Enter Daytime Phone Number.",
			rawName:     "Pt2Line2_Phone[0]",
			wantLabel:   "Daytime Phone Number",
			wantSection: "Part B - Contact Information",
		},
		{
			name:      "select prefix stripped",
			tooltip:   "Select Gender.",
			rawName:   "Pt1Line4_Gender[0]",
			wantLabel: "Gender",
		},
		{
			name:      "enter prefix stripped on plain tooltip",
			tooltip:   "Enter Alien Registration Number.",
			rawName:   "Pt1Line2_ANumber[0]",
			wantLabel: "Alien Registration Number",
		},
		{
			name:      "all lowercase tooltip is title cased",
			tooltip:   "family name of applicant",
			rawName:   "x",
			wantLabel: "Family Name Of Applicant",
		},
		{
			name:      "accented lowercase tooltip keeps its first rune intact",
			tooltip:   "état civil du demandeur",
			rawName:   "x",
			wantLabel: "État Civil Du Demandeur",
		},
		{
			name:      "empty tooltip falls back to identifier heuristics",
			tooltip:   "",
			rawName:   "form1[0].#subform[0].Pt1Line1a_FamilyName[0]",
			wantLabel: "Family Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, section := ParseTooltip(tt.tooltip, tt.rawName)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantSection, section)
		})
	}
}

func TestLabelFromFieldName(t *testing.T) {
	tests := []struct {
		rawName string
		want    string
	}{
		{"form1[0].#subform[0].Pt1Line1a_FamilyName[0]", "Family Name"},
		{"Line4a_StreetNumberAndName", "Street Number And Name"},
		{"USCISOnlineAcctNumber[0]", "USCIS Online Acct Number"},
		{"Pt3Line7_DateOfBirth[0]", "Date Of Birth"},
		{"attorney_bar_number", "Attorney Bar Number"},
		{"TextField1[0]", "Text Field1"},
	}

	for _, tt := range tests {
		t.Run(tt.rawName, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelFromFieldName(tt.rawName))
		})
	}
}

func TestPartNumber(t *testing.T) {
	assert.Equal(t, 6, PartNumber("Pt6Line2_SignatureDate[0]"))
	assert.Equal(t, 1, PartNumber("form1[0].#subform[0].Pt1Line1a_FamilyName[0]"))
	assert.Equal(t, 0, PartNumber("TextField1[0]"))
}
