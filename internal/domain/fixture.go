// Package domain defines the core types of the sports betting escrow: fixtures
// and their lifecycle states, outcomes, stake amounts, payout records, domain
// events, and the store/cache/bus ports implemented by the infrastructure
// packages.
package domain

import "time"

// FixtureID is the stable external identifier of a schedulable match, as
// assigned by the fixtures data provider.
type FixtureID string

// BettingState is the lifecycle state of betting activity on a fixture.
type BettingState int

const (
	// BettingStateClosed is the default state: no betting activity. Every
	// fixture starts Closed and returns to Closed after settlement or abort.
	BettingStateClosed BettingState = iota
	// BettingStateOpening records an open-request whose time window has not
	// been verified yet against the fixture's kickoff time.
	BettingStateOpening
	// BettingStateOpen accepts stake and unstake mutations.
	BettingStateOpen
	// BettingStateAwaiting is the frozen pre-kickoff window: stakes are locked
	// and the fixture waits for its result.
	BettingStateAwaiting
	// BettingStateFulfilling is entered on result delivery and gates
	// settlement.
	BettingStateFulfilling
)

// String returns the lowercase state name used in logs, events, and the API.
func (s BettingState) String() string {
	switch s {
	case BettingStateClosed:
		return "closed"
	case BettingStateOpening:
		return "opening"
	case BettingStateOpen:
		return "open"
	case BettingStateAwaiting:
		return "awaiting"
	case BettingStateFulfilling:
		return "fulfilling"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the five lifecycle states.
func (s BettingState) Valid() bool {
	return s >= BettingStateClosed && s <= BettingStateFulfilling
}

// Fixture is the per-fixture lifecycle record owned by the engine. The kickoff
// time is nil until the oracle delivers it.
type Fixture struct {
	ID          FixtureID
	State       BettingState
	KickoffTime *time.Time
}

// HasKickoff reports whether a kickoff time has been delivered.
func (f *Fixture) HasKickoff() bool {
	return f.KickoffTime != nil
}
