package domain

import "time"

// EventType identifies a domain event published on the signal bus.
type EventType string

const (
	EventKickoffTimeUpdated     EventType = "kickoff_time_updated"
	EventStakeRecorded          EventType = "stake_recorded"
	EventUnstakeRecorded        EventType = "unstake_recorded"
	EventPayoutRecorded         EventType = "payout_recorded"
	EventCommissionRecorded     EventType = "commission_recorded"
	EventResultResolutionFailed EventType = "result_resolution_failed"
	EventLifecycleStateChanged  EventType = "lifecycle_state_changed"
)

// Event is the envelope published for every ledger and lifecycle mutation.
// Payload holds one of the *Payload structs below, matching Type.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	FixtureID FixtureID `json:"fixture_id"`
	At        time.Time `json:"at"`
	Payload   any       `json:"payload"`
}

// KickoffTimeUpdatedPayload carries the new kickoff time as a Unix timestamp.
type KickoffTimeUpdatedPayload struct {
	KickoffTime int64 `json:"kickoff_time"`
}

// StakePayload is shared by stake_recorded and unstake_recorded events.
type StakePayload struct {
	Participant string  `json:"participant"`
	Amount      string  `json:"amount"`
	Outcome     Outcome `json:"outcome"`
}

// PayoutPayload carries one settlement payout line.
type PayoutPayload struct {
	Participant string `json:"participant"`
	NetAmount   string `json:"net_amount"`
}

// CommissionPayload carries the fixture's total accumulated commission,
// emitted once per settlement pass.
type CommissionPayload struct {
	TotalCommission string `json:"total_commission"`
}

// ResolutionFailedPayload carries the diagnostic for an unresolvable result
// signal.
type ResolutionFailedPayload struct {
	Message string `json:"message"`
}

// StateChangedPayload carries the lifecycle state a fixture transitioned to.
type StateChangedPayload struct {
	NewState string `json:"new_state"`
}
