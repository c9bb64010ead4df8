package engine

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// Stake escrows amount from participant against outcome. Betting must be
// Open and the amount must reach the entrance-fee floor; a rejected stake
// leaves the ledger untouched.
func (e *Engine) Stake(ctx context.Context, id domain.FixtureID, outcome domain.Outcome, participant common.Address, amount *big.Int) error {
	if !outcome.Valid() {
		return domain.ErrInvalidOutcome
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}

	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.fix.State != domain.BettingStateOpen {
		return domain.ErrBettingNotOpen
	}
	if amount.Cmp(e.cfg.EntranceFee) < 0 {
		return domain.ErrBelowEntranceFee
	}

	ent.book.AddStake(outcome, participant, amount)
	e.publish(ctx, id, domain.EventStakeRecorded, domain.StakePayload{
		Participant: participant.Hex(),
		Amount:      amount.String(),
		Outcome:     outcome,
	})
	e.updateSnapshot(ctx, ent)

	e.logger.InfoContext(ctx, "stake recorded",
		slog.String("fixture_id", string(id)),
		slog.String("participant", participant.Hex()),
		slog.String("outcome", outcome.String()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// Unstake releases amount of participant's escrowed stake on outcome.
// Partial unstakes are allowed; the amount may not exceed the current
// balance and betting must still be Open.
func (e *Engine) Unstake(ctx context.Context, id domain.FixtureID, outcome domain.Outcome, participant common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}
	if !outcome.Valid() {
		return domain.ErrInvalidOutcome
	}

	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.fix.State != domain.BettingStateOpen {
		return domain.ErrBettingNotOpen
	}
	if err := ent.book.RemoveStake(outcome, participant, amount); err != nil {
		return err
	}

	e.publish(ctx, id, domain.EventUnstakeRecorded, domain.StakePayload{
		Participant: participant.Hex(),
		Amount:      amount.String(),
		Outcome:     outcome,
	})
	e.updateSnapshot(ctx, ent)

	e.logger.InfoContext(ctx, "unstake recorded",
		slog.String("fixture_id", string(id)),
		slog.String("participant", participant.Hex()),
		slog.String("outcome", outcome.String()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// refundAllLocked drains every active stake on the fixture, emitting an
// unstake event per refund. Caller holds ent.mu.
func (e *Engine) refundAllLocked(ctx context.Context, ent *fixtureEntry) {
	entries := ent.book.ActiveStakes()
	if len(entries) == 0 {
		return
	}
	for _, st := range entries {
		if err := ent.book.RemoveStake(st.Outcome, st.Participant, st.Amount); err != nil {
			// Cannot happen for an entry the book itself reported active.
			e.logger.ErrorContext(ctx, "refund failed",
				slog.String("fixture_id", string(ent.fix.ID)),
				slog.String("participant", st.Participant.Hex()),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.publish(ctx, ent.fix.ID, domain.EventUnstakeRecorded, domain.StakePayload{
			Participant: st.Participant.Hex(),
			Amount:      st.Amount.String(),
			Outcome:     st.Outcome,
		})
	}
	e.auditLog(ctx, "fixture_refunded", map[string]any{
		"fixture_id": string(ent.fix.ID),
		"refunds":    len(entries),
	})
	e.logger.InfoContext(ctx, "all active stakes refunded",
		slog.String("fixture_id", string(ent.fix.ID)),
		slog.Int("refunds", len(entries)),
	)
}
