// Package problem owns the canonical ordered collection of problem units
// and materializes upload results into it.
package problem

import (
	"sync"

	"contest-translator/internal/types"
)

// UnitPatch is a partial update of one problem unit. Nil fields are left
// untouched; the patch is applied atomically.
type UnitPatch struct {
	ExtractedText  *string
	TranslatedText *string
	Extracting     *bool
	Translating    *bool
	LastError      *string
}

// Store holds the ordered problem collection, the current-selection cursor,
// and the contest name. It is the single source of truth: all reads return
// value snapshots and all writes go through ReplaceAll/Patch/Clear, so
// observers always see atomic per-unit updates.
type Store struct {
	mu           sync.RWMutex
	units        []types.ProblemUnit
	currentIndex int
	contestName  string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// ReplaceAll atomically swaps the whole collection and resets the cursor to 0.
func (s *Store) ReplaceAll(units []types.ProblemUnit, contestName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = make([]types.ProblemUnit, len(units))
	copy(s.units, units)
	s.contestName = contestName
	s.currentIndex = 0
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = nil
	s.contestName = ""
	s.currentIndex = 0
}

// Units returns a snapshot of the collection.
func (s *Store) Units() []types.ProblemUnit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ProblemUnit, len(s.units))
	copy(out, s.units)
	return out
}

// Len returns the number of units.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units)
}

// ContestName returns the contest name.
func (s *Store) ContestName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contestName
}

// CurrentIndex returns the selection cursor.
func (s *Store) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// Select moves the cursor. Out-of-range indexes are rejected.
func (s *Store) Select(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.units) {
		return false
	}
	s.currentIndex = index
	return true
}

// Current returns a snapshot of the selected unit, or false if the store is
// empty.
func (s *Store) Current() (types.ProblemUnit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentIndex < 0 || s.currentIndex >= len(s.units) {
		return types.ProblemUnit{}, false
	}
	return s.units[s.currentIndex], true
}

// Get returns a snapshot of the unit at index.
func (s *Store) Get(index int) (types.ProblemUnit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.units) {
		return types.ProblemUnit{}, false
	}
	return s.units[index], true
}

// GetByID returns a snapshot of the unit with the given id and its index.
func (s *Store) GetByID(id string) (types.ProblemUnit, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.units {
		if s.units[i].ID == id {
			return s.units[i], i, true
		}
	}
	return types.ProblemUnit{}, -1, false
}

// Patch merges the non-nil patch fields into the unit at index. A missing
// index is a silent no-op.
func (s *Store) Patch(index int, patch UnitPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchLocked(index, patch)
}

// PatchByID re-resolves the unit by id and patches it. The id-based lookup
// is what makes post-suspension updates safe: if the collection was replaced
// while the caller was suspended, the patch is dropped. Returns the index
// patched, or -1.
func (s *Store) PatchByID(id string, patch UnitPatch) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.units {
		if s.units[i].ID == id {
			s.patchLocked(i, patch)
			return i
		}
	}
	return -1
}

func (s *Store) patchLocked(index int, patch UnitPatch) bool {
	if index < 0 || index >= len(s.units) {
		return false
	}
	u := s.units[index]
	if patch.ExtractedText != nil {
		u.ExtractedText = *patch.ExtractedText
	}
	if patch.TranslatedText != nil {
		u.TranslatedText = *patch.TranslatedText
	}
	if patch.Extracting != nil {
		u.Extracting = *patch.Extracting
	}
	if patch.Translating != nil {
		u.Translating = *patch.Translating
	}
	if patch.LastError != nil {
		u.LastError = *patch.LastError
	}
	s.units[index] = u
	return true
}

// Helpers for building patches inline.

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
