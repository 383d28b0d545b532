package anonymizer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "dicom-tag-anonymizer/internal/dicom"
)

func mustNewElement(t *testing.T, tg tag.Tag, data interface{}) *dicom.Element {
	t.Helper()
	e, err := dicom.NewElement(tg, data)
	require.NoError(t, err)
	return e
}

// newStringElement builds an element for tags the dictionary doesn't know
// (private tags in particular), with an explicit VR.
func newStringElement(tg tag.Tag, vr, value string) *dicom.Element {
	v, err := dicom.NewValue([]string{value})
	if err != nil {
		panic(err)
	}
	return &dicom.Element{
		Tag:                    tg,
		ValueRepresentation:    tag.GetVRKind(tg, vr),
		RawValueRepresentation: vr,
		ValueLength:            uint32(len(value)),
		Value:                  v,
	}
}

func writeTestDicom(t *testing.T, path string, elements []*dicom.Element) {
	t.Helper()
	ds := dcm.Dataset{Data: dicom.Dataset{Elements: elements}, FilePath: path}
	require.NoError(t, ds.Save(path))
}

func elementValue(t *testing.T, ds *dcm.Dataset, tg tag.Tag) string {
	t.Helper()
	elem, err := ds.Data.FindElementByTag(tg)
	require.NoError(t, err, "element %s missing", tg)
	return dcm.ElementString(elem)
}
