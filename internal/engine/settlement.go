package engine

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

var oneHundred = big.NewInt(100)

// settleLocked distributes the fixture's pool to winning stakers
// proportionally to their share of the winning-outcome pool, less the house
// commission. Integer division truncates, so the sum of net payouts plus
// commission may fall short of the pool by a few wei of dust; it never
// exceeds it. Caller holds ent.mu.
//
// With no winning stake the whole pool goes to the house as a single payout
// and no commission record is written.
func (e *Engine) settleLocked(ctx context.Context, ent *fixtureEntry, winning domain.Outcome, winningAmount, totalAmount *big.Int) error {
	if ent.fix.State != domain.BettingStateFulfilling {
		return domain.ErrNotFulfilling
	}
	if ent.settled {
		return domain.ErrAlreadySettled
	}
	if !winning.Valid() {
		return domain.ErrInvalidOutcome
	}
	if winningAmount == nil || totalAmount == nil {
		return domain.ErrZeroAmount
	}

	id := ent.fix.ID
	now := e.now()
	report := domain.SettlementReport{
		FixtureID:      id,
		WinningOutcome: winning,
		WinningAmount:  winningAmount.String(),
		TotalAmount:    totalAmount.String(),
		Commission:     "0",
		SettledAt:      now,
	}
	paid := new(big.Int)
	commission := new(big.Int)

	if winningAmount.Sign() == 0 {
		// Nobody backed the winning outcome: the pool defaults to the house.
		rec := domain.PayoutRecord{
			FixtureID:   id,
			Participant: e.cfg.HouseAddress,
			NetAmount:   new(big.Int).Set(totalAmount),
			CreatedAt:   now,
		}
		if err := e.deps.Payouts.Record(ctx, rec); err != nil {
			return err
		}
		e.publish(ctx, id, domain.EventPayoutRecorded, domain.PayoutPayload{
			Participant: rec.Participant.Hex(),
			NetAmount:   rec.NetAmount.String(),
		})
		paid.Set(totalAmount)
		report.Payouts = append(report.Payouts, domain.ReportPayout{
			Participant: rec.Participant.Hex(),
			NetAmount:   rec.NetAmount.String(),
		})
	} else {
		// Validate-then-commit: compute every payout line before the first
		// store write so a bad input cannot leave a partial settlement.
		winners := ent.book.ActiveHistorical(winning)
		lines := make([]domain.PayoutRecord, 0, len(winners))
		for _, p := range winners {
			bal := ent.book.Balance(winning, p)
			if bal.Sign() == 0 {
				continue
			}
			gross := new(big.Int).Mul(bal, totalAmount)
			gross.Div(gross, winningAmount)
			fee := new(big.Int).Mul(gross, big.NewInt(e.cfg.CommissionRate))
			fee.Div(fee, oneHundred)
			net := new(big.Int).Sub(gross, fee)

			commission.Add(commission, fee)
			lines = append(lines, domain.PayoutRecord{
				FixtureID:   id,
				Participant: p,
				NetAmount:   net,
				CreatedAt:   now,
			})
		}

		for _, rec := range lines {
			if err := e.deps.Payouts.Record(ctx, rec); err != nil {
				return err
			}
			e.publish(ctx, id, domain.EventPayoutRecorded, domain.PayoutPayload{
				Participant: rec.Participant.Hex(),
				NetAmount:   rec.NetAmount.String(),
			})
			paid.Add(paid, rec.NetAmount)
			report.Payouts = append(report.Payouts, domain.ReportPayout{
				Participant: rec.Participant.Hex(),
				NetAmount:   rec.NetAmount.String(),
			})
		}

		if err := e.deps.Commissions.Record(ctx, domain.CommissionRecord{
			FixtureID: id,
			Amount:    new(big.Int).Set(commission),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		e.publish(ctx, id, domain.EventCommissionRecorded, domain.CommissionPayload{
			TotalCommission: commission.String(),
		})
		report.Commission = commission.String()
	}

	dust := new(big.Int).Sub(totalAmount, paid)
	dust.Sub(dust, commission)
	report.Dust = dust.String()

	ent.settled = true
	ent.fix.State = domain.BettingStateClosed
	e.publishStateChange(ctx, id, ent.fix.State)
	e.updateSnapshot(ctx, ent)

	e.auditLog(ctx, "fixture_settled", map[string]any{
		"fixture_id": string(id),
		"winning":    winning.String(),
		"paid":       paid.String(),
		"commission": commission.String(),
		"dust":       dust.String(),
	})
	e.archiveReport(ctx, report)

	e.logger.InfoContext(ctx, "fixture settled",
		slog.String("fixture_id", string(id)),
		slog.String("winning_outcome", winning.String()),
		slog.String("total", totalAmount.String()),
		slog.String("paid", paid.String()),
		slog.String("commission", commission.String()),
		slog.String("dust", dust.String()),
	)
	return nil
}
