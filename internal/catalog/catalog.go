// Package catalog holds the fixed registry of DICOM tags targeted by
// anonymization, based on DICOM PS3.15 Annex E. The registry is built once
// at init and never mutated.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// VR is a DICOM value representation code. Only the codes the anonymization
// policy dispatches on are enumerated; anything else parses to VRUnknown
// and takes the fallback (blank-or-remove) branch.
type VR string

const (
	VRPersonName       VR = "PN"
	VRShortString      VR = "SH"
	VRLongString       VR = "LO"
	VRShortText        VR = "ST"
	VRLongText         VR = "LT"
	VRDate             VR = "DA"
	VRTime             VR = "TM"
	VRUniqueIdentifier VR = "UI"
	VRDecimalString    VR = "DS"
	VRIntegerString    VR = "IS"
	VRCodeString       VR = "CS"
	VRAgeString        VR = "AS"
	VRSequence         VR = "SQ"
	VRUnknown          VR = ""
)

// ParseVR maps a raw two-letter VR code to the closed enumeration above.
func ParseVR(raw string) VR {
	switch v := VR(strings.ToUpper(strings.TrimSpace(raw))); v {
	case VRPersonName, VRShortString, VRLongString, VRShortText, VRLongText,
		VRDate, VRTime, VRUniqueIdentifier, VRDecimalString, VRIntegerString,
		VRCodeString, VRAgeString, VRSequence:
		return v
	default:
		return VRUnknown
	}
}

// Entry describes one catalog tag.
type Entry struct {
	Tag      tag.Tag
	VR       VR
	Name     string
	Category string
}

// Category groups entries for display, in the catalog's fixed order.
type Category struct {
	Name    string
	Entries []Entry
}

var categories = []Category{
	{
		Name: "Patient Information",
		Entries: []Entry{
			{Tag: tag.PatientName, VR: VRPersonName, Name: "Patient's Name"},
			{Tag: tag.PatientID, VR: VRLongString, Name: "Patient ID"},
			{Tag: tag.IssuerOfPatientID, VR: VRLongString, Name: "Issuer of Patient ID"},
			{Tag: tag.PatientBirthDate, VR: VRDate, Name: "Patient's Birth Date"},
			{Tag: tag.PatientBirthTime, VR: VRTime, Name: "Patient's Birth Time"},
			{Tag: tag.PatientSex, VR: VRCodeString, Name: "Patient's Sex"},
			{Tag: tag.OtherPatientIDs, VR: VRLongString, Name: "Other Patient IDs"},
			{Tag: tag.OtherPatientNames, VR: VRPersonName, Name: "Other Patient Names"},
			{Tag: tag.OtherPatientIDsSequence, VR: VRSequence, Name: "Other Patient IDs Sequence"},
			{Tag: tag.PatientAge, VR: VRAgeString, Name: "Patient's Age"},
			{Tag: tag.PatientSize, VR: VRDecimalString, Name: "Patient's Size"},
			{Tag: tag.PatientWeight, VR: VRDecimalString, Name: "Patient's Weight"},
			{Tag: tag.PatientAddress, VR: VRLongString, Name: "Patient's Address"},
			{Tag: tag.EthnicGroup, VR: VRShortString, Name: "Ethnic Group"},
			{Tag: tag.Occupation, VR: VRShortString, Name: "Occupation"},
			{Tag: tag.AdditionalPatientHistory, VR: VRLongText, Name: "Additional Patient History"},
			{Tag: tag.PatientComments, VR: VRLongText, Name: "Patient Comments"},
		},
	},
	{
		Name: "Physician Information",
		Entries: []Entry{
			{Tag: tag.InstitutionName, VR: VRLongString, Name: "Institution Name"},
			{Tag: tag.InstitutionAddress, VR: VRShortText, Name: "Institution Address"},
			{Tag: tag.ReferringPhysicianName, VR: VRPersonName, Name: "Referring Physician's Name"},
			{Tag: tag.ReferringPhysicianAddress, VR: VRShortText, Name: "Referring Physician's Address"},
			{Tag: tag.ReferringPhysicianTelephoneNumbers, VR: VRShortString, Name: "Referring Physician's Telephone Numbers"},
			{Tag: tag.PerformingPhysicianName, VR: VRPersonName, Name: "Performing Physician's Name"},
			{Tag: tag.OperatorsName, VR: VRPersonName, Name: "Operators' Name"},
		},
	},
	{
		Name: "Study Information",
		Entries: []Entry{
			{Tag: tag.StudyDescription, VR: VRLongString, Name: "Study Description"},
			{Tag: tag.AccessionNumber, VR: VRShortString, Name: "Accession Number"},
			{Tag: tag.RequestingPhysician, VR: VRPersonName, Name: "Requesting Physician"},
		},
	},
	{
		Name: "Equipment Information",
		Entries: []Entry{
			{Tag: tag.StationName, VR: VRShortString, Name: "Station Name"},
		},
	},
	{
		Name: "UIDs",
		Entries: []Entry{
			{Tag: tag.StudyInstanceUID, VR: VRUniqueIdentifier, Name: "Study Instance UID"},
			{Tag: tag.SeriesInstanceUID, VR: VRUniqueIdentifier, Name: "Series Instance UID"},
			{Tag: tag.SOPInstanceUID, VR: VRUniqueIdentifier, Name: "SOP Instance UID"},
			{Tag: tag.FrameOfReferenceUID, VR: VRUniqueIdentifier, Name: "Frame of Reference UID"},
		},
	},
}

var byTag map[tag.Tag]Entry

func init() {
	byTag = make(map[tag.Tag]Entry)
	for ci := range categories {
		for ei := range categories[ci].Entries {
			categories[ci].Entries[ei].Category = categories[ci].Name
			e := categories[ci].Entries[ei]
			byTag[e.Tag] = e
		}
	}
}

// Lookup returns the catalog entry for a tag.
func Lookup(t tag.Tag) (Entry, bool) {
	e, ok := byTag[t]
	return e, ok
}

// Categories returns the catalog grouped by category, in fixed order.
// The returned slices are copies; callers may not mutate the catalog.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Name: c.Name, Entries: append([]Entry(nil), c.Entries...)}
	}
	return out
}

// AllTags returns every catalog tag in category order.
func AllTags() []tag.Tag {
	var out []tag.Tag
	for _, c := range categories {
		for _, e := range c.Entries {
			out = append(out, e.Tag)
		}
	}
	return out
}

// Len reports the number of catalog entries.
func Len() int {
	return len(byTag)
}

// ParseTag parses a "GGGG,EEEE" hex pair into a tag, e.g. "0010,0010".
// A surrounding "(...)" is accepted.
func ParseTag(s string) (tag.Tag, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return tag.Tag{}, fmt.Errorf("invalid tag %q: want GGGG,EEEE", s)
	}
	group, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid tag group in %q: %w", s, err)
	}
	elem, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid tag element in %q: %w", s, err)
	}
	return tag.Tag{Group: uint16(group), Element: uint16(elem)}, nil
}
