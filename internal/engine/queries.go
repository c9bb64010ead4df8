package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// State returns the fixture's current lifecycle state. Unknown fixtures are
// Closed by definition.
func (e *Engine) State(id domain.FixtureID) domain.BettingState {
	ent, ok := e.peek(id)
	if !ok {
		return domain.BettingStateClosed
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.fix.State
}

// KickoffTime returns the fixture's kickoff time, if one was delivered.
func (e *Engine) KickoffTime(id domain.FixtureID) (time.Time, bool) {
	ent, ok := e.peek(id)
	if !ok {
		return time.Time{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if !ent.fix.HasKickoff() {
		return time.Time{}, false
	}
	return *ent.fix.KickoffTime, true
}

// TotalStaked returns the total escrowed against one outcome.
func (e *Engine) TotalStaked(id domain.FixtureID, outcome domain.Outcome) (*big.Int, error) {
	if !outcome.Valid() {
		return nil, domain.ErrInvalidOutcome
	}
	ent, ok := e.peek(id)
	if !ok {
		return new(big.Int), nil
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.book.Total(outcome), nil
}

// TotalStakedOutcomes returns the combined total escrowed against a set of
// outcomes.
func (e *Engine) TotalStakedOutcomes(id domain.FixtureID, outcomes []domain.Outcome) (*big.Int, error) {
	for _, o := range outcomes {
		if !o.Valid() {
			return nil, domain.ErrInvalidOutcome
		}
	}
	ent, ok := e.peek(id)
	if !ok {
		return new(big.Int), nil
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.book.TotalForOutcomes(outcomes), nil
}

// StakeSummary returns the participant's per-outcome balances on a fixture.
func (e *Engine) StakeSummary(id domain.FixtureID, participant common.Address) domain.StakeVector {
	ent, ok := e.peek(id)
	if !ok {
		return domain.NewStakeVector()
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.book.UserVector(participant)
}

// Enriched returns the combined lifecycle, per-user, and per-outcome-total
// projection for a fixture.
func (e *Engine) Enriched(id domain.FixtureID, participant common.Address) domain.EnrichedFixture {
	ent, ok := e.peek(id)
	if !ok {
		return domain.EnrichedFixture{
			FixtureID: id,
			State:     domain.BettingStateClosed,
			User:      domain.NewStakeVector(),
			Total:     domain.NewStakeVector(),
		}
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return domain.EnrichedFixture{
		FixtureID:   id,
		State:       ent.fix.State,
		KickoffTime: ent.fix.KickoffTime,
		User:        ent.book.UserVector(participant),
		Total:       ent.book.TotalVector(),
	}
}

// Snapshot returns the participant-independent fixture snapshot, preferring
// the cache and falling back to the live book on a miss.
func (e *Engine) Snapshot(ctx context.Context, id domain.FixtureID) domain.FixtureSnapshot {
	if e.deps.Cache != nil {
		if snap, err := e.deps.Cache.Get(ctx, id); err == nil {
			return snap
		}
	}
	ent, ok := e.peek(id)
	if !ok {
		return domain.FixtureSnapshot{
			FixtureID: id,
			State:     domain.BettingStateClosed,
			Total:     domain.NewStakeVector().Strings(),
			UpdatedAt: e.now(),
		}
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	snap := domain.FixtureSnapshot{
		FixtureID:   id,
		State:       ent.fix.State,
		KickoffTime: ent.fix.KickoffTime,
		Total:       ent.book.TotalVector().Strings(),
		UpdatedAt:   e.now(),
	}
	if e.deps.Cache != nil {
		_ = e.deps.Cache.Set(ctx, snap)
	}
	return snap
}

// Settled reports whether a settlement pass has completed on the fixture.
func (e *Engine) Settled(id domain.FixtureID) bool {
	ent, ok := e.peek(id)
	if !ok {
		return false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.settled
}

// LastResolutionError returns the diagnostic of the most recent failed
// result resolution, empty if the last delivery resolved.
func (e *Engine) LastResolutionError(id domain.FixtureID) string {
	ent, ok := e.peek(id)
	if !ok {
		return ""
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.lastResolutionError
}

// Payout returns the participant's settlement payout record for a fixture.
func (e *Engine) Payout(ctx context.Context, id domain.FixtureID, participant common.Address) (domain.PayoutRecord, error) {
	return e.deps.Payouts.Get(ctx, id, participant)
}

// Payouts lists all payout records written for a fixture.
func (e *Engine) Payouts(ctx context.Context, id domain.FixtureID) ([]domain.PayoutRecord, error) {
	return e.deps.Payouts.ListByFixture(ctx, id)
}

// Commission returns the fixture's commission record.
func (e *Engine) Commission(ctx context.Context, id domain.FixtureID) (domain.CommissionRecord, error) {
	return e.deps.Commissions.Get(ctx, id)
}
