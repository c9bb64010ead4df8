// Package lifecycle implements the fixture betting-state machine. The
// machine decides, from wall-clock time and a fixture's kickoff time, whether
// the fixture's state should advance or reset. It mutates only the fixture
// record handed to it; serialization and event emission are the engine's job.
package lifecycle

import (
	"time"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

const (
	// DefaultAdvanceWindow is how far ahead of kickoff betting may open.
	DefaultAdvanceWindow = 7 * 24 * time.Hour
	// DefaultCutoffWindow is how close to kickoff betting must freeze.
	DefaultCutoffWindow = 90 * time.Minute
)

// Machine holds the fixed betting window configuration.
type Machine struct {
	advanceWindow time.Duration
	cutoffWindow  time.Duration
}

// New creates a Machine with the given windows. Non-positive values fall
// back to the defaults.
func New(advanceWindow, cutoffWindow time.Duration) *Machine {
	if advanceWindow <= 0 {
		advanceWindow = DefaultAdvanceWindow
	}
	if cutoffWindow <= 0 {
		cutoffWindow = DefaultCutoffWindow
	}
	return &Machine{advanceWindow: advanceWindow, cutoffWindow: cutoffWindow}
}

// AdvanceWindow returns the configured advance window.
func (m *Machine) AdvanceWindow() time.Duration { return m.advanceWindow }

// CutoffWindow returns the configured cutoff window.
func (m *Machine) CutoffWindow() time.Duration { return m.cutoffWindow }

// SetKickoffTime unconditionally overwrites the fixture's kickoff time. It
// carries no state precondition: the oracle may deliver before the fixture
// has ever been opened.
func (m *Machine) SetKickoffTime(fix *domain.Fixture, kickoff time.Time) {
	t := kickoff
	fix.KickoffTime = &t
}

// Reconcile is the core transition function. It inspects the fixture's state
// and kickoff time against now and returns the state the fixture moved to
// and whether anything changed. Calling it again with the same inputs is a
// no-op.
//
// Opening resets to Closed when the kickoff time is missing, when now is
// still outside the advance window, or when now has reached the cutoff
// window; otherwise it advances to Open. Open freezes to Awaiting once now
// reaches the cutoff window. Closed, Awaiting, and Fulfilling only move via
// external deliveries, never here.
func (m *Machine) Reconcile(fix *domain.Fixture, now time.Time) (domain.BettingState, bool) {
	switch fix.State {
	case domain.BettingStateOpening:
		if !fix.HasKickoff() || !m.inBettingWindow(*fix.KickoffTime, now) {
			fix.State = domain.BettingStateClosed
			return fix.State, true
		}
		fix.State = domain.BettingStateOpen
		return fix.State, true

	case domain.BettingStateOpen:
		if fix.HasKickoff() && m.pastCutoff(*fix.KickoffTime, now) {
			fix.State = domain.BettingStateAwaiting
			return fix.State, true
		}
		return fix.State, false

	default:
		return fix.State, false
	}
}

// inBettingWindow reports whether now falls inside [kickoff-advance,
// kickoff-cutoff). The far boundary is inclusive, the near one is not:
// exactly cutoffWindow before kickoff is already too close.
func (m *Machine) inBettingWindow(kickoff, now time.Time) bool {
	return !now.Before(kickoff.Add(-m.advanceWindow)) && !m.pastCutoff(kickoff, now)
}

// pastCutoff reports whether now has reached the freeze point.
func (m *Machine) pastCutoff(kickoff, now time.Time) bool {
	return !now.Before(kickoff.Add(-m.cutoffWindow))
}
