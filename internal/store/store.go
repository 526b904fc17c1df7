// Package store owns the client's canonical view of the pipeline: the
// leads list, per-stage stats, the open lead's activity trail, the
// bulk-selection set, and optimistic stage bookkeeping.
//
// The store is plain state. It is mutated only from the TUI's update
// loop in response to completed requests, so writes are last-writer-
// wins by arrival order with no version checks.
package store

import (
	"sort"

	"github.com/kestrelhq/leadline/internal/lead"
)

// Store is the lead collection store.
type Store struct {
	leads      []lead.Lead
	stats      []lead.PipelineStat
	activities []lead.Activity

	// openID is the lead currently inspected in the detail panel,
	// 0 when none.
	openID int

	selection map[int]struct{}

	// unconfirmed holds ids whose pipeline stage was applied
	// optimistically and has not been confirmed by the service.
	unconfirmed map[int]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		selection:   map[int]struct{}{},
		unconfirmed: map[int]struct{}{},
	}
}

// Leads returns the canonical leads list. Callers treat it as
// read-only; the filter pipeline copies before sorting.
func (s *Store) Leads() []lead.Lead {
	return s.leads
}

// Len returns the number of leads held.
func (s *Store) Len() int {
	return len(s.leads)
}

// Lead returns the lead with the given id.
func (s *Store) Lead(id int) (lead.Lead, bool) {
	for _, l := range s.leads {
		if l.ID == id {
			return l, true
		}
	}
	return lead.Lead{}, false
}

// ReplaceLeads swaps in a freshly fetched list wholesale. Duplicate
// ids are collapsed keeping the first occurrence, preserving the
// no-two-leads-share-an-id invariant even against a misbehaving
// server. Selection marks and the open pointer are pruned to ids that
// still exist.
func (s *Store) ReplaceLeads(leads []lead.Lead) {
	seen := make(map[int]struct{}, len(leads))
	next := make([]lead.Lead, 0, len(leads))
	for _, l := range leads {
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		next = append(next, l)
	}
	s.leads = next

	for id := range s.selection {
		if _, ok := seen[id]; !ok {
			delete(s.selection, id)
		}
	}
	for id := range s.unconfirmed {
		if _, ok := seen[id]; !ok {
			delete(s.unconfirmed, id)
		}
	}
	if s.openID != 0 {
		if _, ok := seen[s.openID]; !ok {
			s.CloseLead()
		}
	}
}

// AddLead appends a newly created lead. An existing lead with the
// same id is replaced instead, keeping ids unique.
func (s *Store) AddLead(l lead.Lead) {
	for i := range s.leads {
		if s.leads[i].ID == l.ID {
			s.leads[i] = l
			return
		}
	}
	s.leads = append(s.leads, l)
}

// MergeLead replaces the matching lead in place. Absent ids are a
// no-op: a refresh for a lead deleted meanwhile must not resurrect
// it. The stage-unconfirmed mark is cleared because the merged record
// is the server's word.
func (s *Store) MergeLead(l lead.Lead) bool {
	for i := range s.leads {
		if s.leads[i].ID == l.ID {
			s.leads[i] = l
			delete(s.unconfirmed, l.ID)
			return true
		}
	}
	return false
}

// RemoveLeads deletes the given ids from the local list, returning
// the ids actually removed. Absent ids are no-ops. Selection marks,
// the unconfirmed set, and the open pointer referencing removed leads
// are cleared.
func (s *Store) RemoveLeads(ids ...int) []int {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var removed []int
	next := s.leads[:0]
	for _, l := range s.leads {
		if _, gone := drop[l.ID]; gone {
			removed = append(removed, l.ID)
			delete(s.selection, l.ID)
			delete(s.unconfirmed, l.ID)
			if s.openID == l.ID {
				s.CloseLead()
			}
			continue
		}
		next = append(next, l)
	}
	s.leads = next
	return removed
}

// OpenLead points the detail panel at a lead and clears the previous
// lead's activity trail.
func (s *Store) OpenLead(id int) bool {
	if _, ok := s.Lead(id); !ok {
		return false
	}
	if s.openID != id {
		s.activities = nil
	}
	s.openID = id
	return true
}

// CloseLead clears the detail pointer and its activity trail.
func (s *Store) CloseLead() {
	s.openID = 0
	s.activities = nil
}

// OpenID returns the inspected lead's id, 0 when none.
func (s *Store) OpenID() int {
	return s.openID
}

// Open returns the inspected lead.
func (s *Store) Open() (lead.Lead, bool) {
	if s.openID == 0 {
		return lead.Lead{}, false
	}
	return s.Lead(s.openID)
}

// SetActivities replaces the open lead's activity trail. Activities
// are append-only server-side and fetched fresh on demand.
func (s *Store) SetActivities(activities []lead.Activity) {
	s.activities = activities
}

// Activities returns the open lead's activity trail.
func (s *Store) Activities() []lead.Activity {
	return s.activities
}

// ReplaceStats swaps in freshly fetched pipeline aggregates.
func (s *Store) ReplaceStats(stats []lead.PipelineStat) {
	s.stats = stats
}

// Stats returns the pipeline aggregates.
func (s *Store) Stats() []lead.PipelineStat {
	return s.stats
}

// ToggleSelect flips a lead's membership in the bulk-selection set.
func (s *Store) ToggleSelect(id int) {
	if _, ok := s.selection[id]; ok {
		delete(s.selection, id)
		return
	}
	if _, exists := s.Lead(id); exists {
		s.selection[id] = struct{}{}
	}
}

// Selected reports membership in the bulk-selection set.
func (s *Store) Selected(id int) bool {
	_, ok := s.selection[id]
	return ok
}

// SelectionIDs returns the selected ids in ascending order, so batch
// operations fan out deterministically.
func (s *Store) SelectionIDs() []int {
	ids := make([]int, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SelectionCount returns the size of the bulk-selection set.
func (s *Store) SelectionCount() int {
	return len(s.selection)
}

// ClearSelection empties the bulk-selection set.
func (s *Store) ClearSelection() {
	s.selection = map[int]struct{}{}
}

// SetStage applies a stage change optimistically and marks the lead
// unconfirmed until the service acknowledges it. Any stage may move
// to any other; only unknown stage values are refused.
func (s *Store) SetStage(id int, stage lead.Stage) bool {
	if !stage.Known() {
		return false
	}
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads[i].PipelineStage = stage
			s.unconfirmed[id] = struct{}{}
			return true
		}
	}
	return false
}

// ConfirmStage clears the unconfirmed mark after the service accepted
// the change.
func (s *Store) ConfirmStage(id int) {
	delete(s.unconfirmed, id)
}

// RejectStage records that the service refused the change. The
// optimistic value is kept on purpose, but the unconfirmed mark stays
// so the drift is visible instead of silent.
func (s *Store) RejectStage(id int) {
	if _, exists := s.Lead(id); exists {
		s.unconfirmed[id] = struct{}{}
	}
}

// StageUnconfirmed reports whether the lead's displayed stage is
// still awaiting (or was refused) server confirmation.
func (s *Store) StageUnconfirmed(id int) bool {
	_, ok := s.unconfirmed[id]
	return ok
}
