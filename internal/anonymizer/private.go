package anonymizer

import (
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// IsPrivate reports whether t is a vendor-private tag. The DICOM convention
// marks private tags with an odd group number.
func IsPrivate(t tag.Tag) bool {
	return t.Group%2 == 1
}

// StripPrivate removes every private element from the dataset, independent
// of catalog and selection. Returns the number of elements removed.
// Running it on an already-stripped dataset is a no-op.
func StripPrivate(ds *dicom.Dataset) int {
	kept := make([]*dicom.Element, 0, len(ds.Elements))
	removed := 0
	for _, elem := range ds.Elements {
		if IsPrivate(elem.Tag) {
			removed++
			continue
		}
		kept = append(kept, elem)
	}
	ds.Elements = kept
	return removed
}
