// Package uidmap provides the batch-scoped mapping from original DICOM UIDs
// to freshly generated ones. Every occurrence of the same original UID within
// one batch resolves to the same replacement, which keeps study/series/
// instance references consistent across all files of a run. The table is
// never persisted: a new run produces unrelated replacements.
package uidmap

import (
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// uidRoot is the ISO/ITU-T "2.25" arc for UUID-derived OIDs, the standard
// way to mint DICOM UIDs without a registered org root. The decimal form of
// a 128-bit UUID is at most 39 digits, so the result always fits the
// 64-character UID limit.
const uidRoot = "2.25."

// Table maps original UID strings to newly generated UIDs for one batch run.
// Safe for concurrent use.
type Table struct {
	mu      sync.Mutex
	entries map[string]string
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make(map[string]string)}
}

// Resolve returns the replacement UID for original, generating and storing
// one on first encounter. Check-then-insert is a single critical section, so
// concurrent calls with the same original never yield different results.
func (t *Table) Resolve(original string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mapped, ok := t.entries[original]; ok {
		return mapped
	}
	mapped := NewUID()
	t.entries[original] = mapped
	return mapped
}

// Len reports how many distinct original UIDs have been seen.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// NewUID generates a random, syntactically valid DICOM UID.
func NewUID() string {
	u := uuid.New()
	return uidRoot + new(big.Int).SetBytes(u[:]).String()
}
