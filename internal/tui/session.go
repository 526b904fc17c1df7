package tui

import "github.com/kestrelhq/leadline/internal/lead"

// sessionState tracks the active message session for the open lead:
// Idle → Generating → Displaying → TuningUp → Displaying → Closed
// (Closed and Idle are the same resting state).
type sessionState int

const (
	sessionIdle sessionState = iota
	sessionGenerating
	sessionDisplaying
	sessionTuning
)

// messageSession holds the one open GeneratedMessage and guards it
// with a monotonic sequence number: every request captures the
// sequence at issue time, and a result whose sequence no longer
// matches is discarded. Closing the panel or switching leads bumps
// the sequence, which is how superseded in-flight requests die —
// there is no network-level cancellation.
type messageSession struct {
	state  sessionState
	leadID int
	msg    *lead.GeneratedMessage
	seq    int64

	// prior is the state to return to when a request fails.
	prior sessionState
}

// beginGenerate transitions Idle|Displaying → Generating and returns
// the sequence the command must carry.
func (s *messageSession) beginGenerate(leadID int) (int64, bool) {
	if s.state == sessionGenerating || s.state == sessionTuning {
		return 0, false
	}
	if s.leadID != leadID {
		// A different lead discards the previous message outright.
		s.msg = nil
		s.prior = sessionIdle
	} else {
		s.prior = s.state
	}
	s.leadID = leadID
	s.state = sessionGenerating
	s.seq++
	return s.seq, true
}

// beginTune transitions Displaying → TuningUp. It requires an open
// message.
func (s *messageSession) beginTune() (int64, bool) {
	if s.state != sessionDisplaying || s.msg == nil {
		return 0, false
	}
	s.prior = sessionDisplaying
	s.state = sessionTuning
	s.seq++
	return s.seq, true
}

// stale reports whether a result tagged with seq was superseded.
func (s *messageSession) stale(seq int64) bool {
	return seq != s.seq
}

// applyGenerated installs a generation result and shows it.
func (s *messageSession) applyGenerated(msg lead.GeneratedMessage) {
	m := msg
	s.msg = &m
	s.state = sessionDisplaying
}

// applyTuned replaces subject and content, preserving the type.
func (s *messageSession) applyTuned(msg lead.GeneratedMessage) {
	if s.msg == nil {
		return
	}
	s.msg.Subject = msg.Subject
	s.msg.Content = msg.Content
	s.state = sessionDisplaying
}

// fail returns to the prior state leaving the message unchanged.
func (s *messageSession) fail() {
	s.state = s.prior
}

// close discards the session unconditionally. In-flight results are
// orphaned by the sequence bump.
func (s *messageSession) close() {
	s.state = sessionIdle
	s.msg = nil
	s.leadID = 0
	s.seq++
}

// open reports whether a message is currently displayed.
func (s *messageSession) open() bool {
	return s.msg != nil && (s.state == sessionDisplaying || s.state == sessionTuning)
}

// busy reports whether a network-bound transition is in flight.
func (s *messageSession) busy() bool {
	return s.state == sessionGenerating || s.state == sessionTuning
}
