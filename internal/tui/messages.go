package tui

import (
	"github.com/kestrelhq/leadline/internal/api"
	"github.com/kestrelhq/leadline/internal/lead"
)

// Every async outcome arrives in Update as one of these messages.
// Commands do the network work; Update is the only place store state
// changes, so writes stay on the single logical control thread.

// leadsLoadedMsg carries a wholesale refresh of the leads list and
// stats. Stats may be nil when their fetch failed; that failure is
// silent per the error policy for secondary data.
type leadsLoadedMsg struct {
	leads []lead.Lead
	stats []lead.PipelineStat
	err   error
}

// activitiesMsg carries a fresh activity trail for one lead. A failed
// fetch arrives with nil activities and is not toasted.
type activitiesMsg struct {
	leadID     int
	activities []lead.Activity
}

// leadCreatedMsg reports a create round-trip.
type leadCreatedMsg struct {
	lead  lead.Lead
	stats []lead.PipelineStat
	err   error
}

// leadUpdatedMsg reports an update round-trip.
type leadUpdatedMsg struct {
	lead  lead.Lead
	stats []lead.PipelineStat
	err   error
}

// leadDeletedMsg reports a single-lead delete.
type leadDeletedMsg struct {
	id    int
	stats []lead.PipelineStat
	err   error
}

// deleteFailure names one id a batch delete could not remove.
type deleteFailure struct {
	id  int
	err error
}

// batchDeleteMsg carries per-item settled results for a batch delete:
// only confirmed ids are removed locally, failures are reported.
type batchDeleteMsg struct {
	deleted []int
	failed  []deleteFailure
	stats   []lead.PipelineStat
}

// scoreBatchMsg reports a score-all run plus the follow-up reloads.
type scoreBatchMsg struct {
	result   api.ScoreBatchResult
	leads    []lead.Lead
	openLead *lead.Lead
	stats    []lead.PipelineStat
	err      error
}

// generateDoneMsg reports a generate round-trip and its dependent
// refreshes, tagged with the session sequence it was issued under.
// Stale sequences are discarded without touching state.
type generateDoneMsg struct {
	seq        int64
	leadID     int
	msg        lead.GeneratedMessage
	refreshed  *lead.Lead
	stats      []lead.PipelineStat
	activities []lead.Activity
	err        error
}

// tuneDoneMsg reports a tune-up round-trip, session-tagged like
// generateDoneMsg.
type tuneDoneMsg struct {
	seq        int64
	leadID     int
	msg        lead.GeneratedMessage
	activities []lead.Activity
	err        error
}

// stageSavedMsg reconciles an optimistic stage change.
type stageSavedMsg struct {
	leadID     int
	stage      lead.Stage
	stats      []lead.PipelineStat
	activities []lead.Activity
	err        error
}

// toastExpiredMsg fires when a toast's lifetime elapses.
type toastExpiredMsg struct {
	id string
}
