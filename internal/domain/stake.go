package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StakeVector is a fixed-size vector of wei amounts indexed by outcome
// (Home=0, Draw=1, Away=2). The zero value is not usable; construct with
// NewStakeVector so every slot holds an allocated big.Int.
type StakeVector [3]*big.Int

// NewStakeVector returns a vector with every slot set to zero.
func NewStakeVector() StakeVector {
	var v StakeVector
	for i := range v {
		v[i] = new(big.Int)
	}
	return v
}

// Get returns the amount for the given outcome.
func (v StakeVector) Get(o Outcome) *big.Int {
	return v[o.Index()]
}

// Set copies amount into the slot for the given outcome.
func (v StakeVector) Set(o Outcome, amount *big.Int) {
	v[o.Index()].Set(amount)
}

// Strings renders the vector as decimal strings for API responses.
func (v StakeVector) Strings() [3]string {
	var out [3]string
	for i, a := range v {
		if a == nil {
			out[i] = "0"
			continue
		}
		out[i] = a.String()
	}
	return out
}

// EnrichedFixture is the combined "state + user stakes + total stakes"
// projection served by the fixture snapshot endpoint.
type EnrichedFixture struct {
	FixtureID   FixtureID
	State       BettingState
	KickoffTime *time.Time
	User        StakeVector
	Total       StakeVector
}

// FixtureSnapshot is the participant-independent part of EnrichedFixture,
// cached between ledger mutations.
type FixtureSnapshot struct {
	FixtureID   FixtureID    `json:"fixture_id"`
	State       BettingState `json:"state"`
	KickoffTime *time.Time   `json:"kickoff_time,omitempty"`
	Total       [3]string    `json:"total"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ZeroParticipant is the reserved sentinel occupying position 0 of every
// historical-participant log. It is never a real staker.
var ZeroParticipant = common.Address{}
