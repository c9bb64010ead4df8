package engine

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// DepositCredit credits a participant's oracle-fee balance.
func (e *Engine) DepositCredit(ctx context.Context, participant common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}
	if e.deps.Credits == nil {
		return domain.ErrNotFound
	}
	if err := e.deps.Credits.Deposit(ctx, participant, amount); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "credit deposited",
		slog.String("participant", participant.Hex()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// WithdrawCredit debits a participant's oracle-fee balance. Fails with
// ErrInsufficientCredit when the balance cannot cover the amount.
func (e *Engine) WithdrawCredit(ctx context.Context, participant common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}
	if e.deps.Credits == nil {
		return domain.ErrNotFound
	}
	if err := e.deps.Credits.Withdraw(ctx, participant, amount); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "credit withdrawn",
		slog.String("participant", participant.Hex()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// CreditBalance returns a participant's oracle-fee credit balance.
func (e *Engine) CreditBalance(ctx context.Context, participant common.Address) (*big.Int, error) {
	if e.deps.Credits == nil {
		return new(big.Int), nil
	}
	return e.deps.Credits.Balance(ctx, participant)
}
