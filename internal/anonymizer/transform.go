// Package anonymizer implements the tag anonymization policy: the
// per-element transform, the private tag stripper, and the batch
// orchestration that applies both to every file in a directory.
package anonymizer

import (
	"fmt"

	"github.com/suyashkumar/dicom"

	"dicom-tag-anonymizer/internal/catalog"
	dcm "dicom-tag-anonymizer/internal/dicom"
	"dicom-tag-anonymizer/internal/uidmap"
)

// Replacement literals, per PS3.15-style de-identification practice. Dates
// and times get fixed valid values so the element stays parseable; text
// gets an explicit marker.
const (
	anonymizedText = "ANONYMIZED"
	anonymizedDate = "18000101"
	anonymizedTime = "000000"
	anonymizedNum  = "0"
)

// Disposition says what the batch should do with an element after the
// transform has looked at it.
type Disposition int

const (
	// Keep passes the original element through untouched.
	Keep Disposition = iota
	// Replace substitutes the element with Outcome.Element.
	Replace
	// Remove drops the element from the output entirely.
	Remove
)

// Outcome is the result of transforming a single element. Skipped marks an
// element that could not be transformed and was removed as the safe
// default; it never fails the file.
type Outcome struct {
	Disposition Disposition
	Element     *dicom.Element
	Skipped     bool
	Reason      string
}

// Transformer applies the anonymization policy to individual elements. It
// holds no per-file state and is safe to share across workers; the UID
// table does its own locking.
type Transformer struct {
	selection catalog.Selection
	uids      *uidmap.Table
}

// NewTransformer builds a transformer for one batch run.
func NewTransformer(selection catalog.Selection, uids *uidmap.Table) *Transformer {
	return &Transformer{selection: selection, uids: uids}
}

// Apply evaluates the policy for one element. The input element is never
// mutated; replacements are freshly built elements.
func (t *Transformer) Apply(elem *dicom.Element) Outcome {
	// Private elements are the stripper's concern.
	if elem.Tag.Group%2 == 1 {
		return Outcome{Disposition: Keep}
	}

	if _, ok := catalog.Lookup(elem.Tag); !ok {
		return Outcome{Disposition: Keep}
	}
	if !t.selection.Contains(elem.Tag) {
		return Outcome{Disposition: Keep}
	}

	switch catalog.ParseVR(elem.RawValueRepresentation) {
	case catalog.VRPersonName, catalog.VRShortString, catalog.VRLongString,
		catalog.VRShortText, catalog.VRLongText:
		// An absent value stays absent: never introduce data where none
		// existed.
		if dcm.ElementString(elem) == "" {
			return Outcome{Disposition: Keep}
		}
		return replaceString(elem, anonymizedText)

	case catalog.VRDate:
		return replaceString(elem, anonymizedDate)

	case catalog.VRTime:
		return replaceString(elem, anonymizedTime)

	case catalog.VRUniqueIdentifier:
		original := dcm.ElementString(elem)
		if original == "" {
			return Outcome{Disposition: Keep}
		}
		return replaceString(elem, t.uids.Resolve(original))

	case catalog.VRDecimalString, catalog.VRIntegerString:
		return replaceString(elem, anonymizedNum)

	default:
		// Blank the value to preserve type validity; elements whose value
		// cannot be blanked (sequences, binary) are removed instead.
		if isStringBacked(elem) {
			return replaceString(elem, "")
		}
		return Outcome{
			Disposition: Remove,
			Skipped:     true,
			Reason:      fmt.Sprintf("cannot blank VR %q, removing element", elem.RawValueRepresentation),
		}
	}
}

// replaceString builds a copy of elem carrying value instead of the
// original content. VR fields are carried over unchanged.
func replaceString(elem *dicom.Element, value string) Outcome {
	newValue, err := dicom.NewValue([]string{value})
	if err != nil {
		return Outcome{
			Disposition: Remove,
			Skipped:     true,
			Reason:      fmt.Sprintf("could not build replacement value: %v", err),
		}
	}

	return Outcome{
		Disposition: Replace,
		Element: &dicom.Element{
			Tag:                    elem.Tag,
			ValueRepresentation:    elem.ValueRepresentation,
			RawValueRepresentation: elem.RawValueRepresentation,
			ValueLength:            uint32(len(value)),
			Value:                  newValue,
		},
	}
}

func isStringBacked(elem *dicom.Element) bool {
	return elem.Value != nil && elem.Value.ValueType() == dicom.Strings
}
