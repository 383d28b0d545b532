package catalog

import "github.com/suyashkumar/dicom/pkg/tag"

// Selection is the set of catalog tags chosen for anonymization. It is
// immutable: deriving methods return a new Selection, so one value can be
// shared across concurrent file workers.
type Selection struct {
	tags map[tag.Tag]struct{}
}

// NewSelection builds a selection from explicit tags.
func NewSelection(tags ...tag.Tag) Selection {
	s := Selection{tags: make(map[tag.Tag]struct{}, len(tags))}
	for _, t := range tags {
		s.tags[t] = struct{}{}
	}
	return s
}

// DefaultSelection selects every catalog tag.
func DefaultSelection() Selection {
	return NewSelection(AllTags()...)
}

// Contains reports whether t is selected.
func (s Selection) Contains(t tag.Tag) bool {
	_, ok := s.tags[t]
	return ok
}

// Without returns a copy of the selection with the given tags removed.
func (s Selection) Without(tags ...tag.Tag) Selection {
	out := Selection{tags: make(map[tag.Tag]struct{}, len(s.tags))}
	for t := range s.tags {
		out.tags[t] = struct{}{}
	}
	for _, t := range tags {
		delete(out.tags, t)
	}
	return out
}

// Len reports the number of selected tags.
func (s Selection) Len() int {
	return len(s.tags)
}
