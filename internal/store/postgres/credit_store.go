package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// CreditStore implements domain.CreditStore using PostgreSQL. Balance
// arithmetic runs inside single UPDATE statements so concurrent deposits and
// withdrawals never lose increments and a withdrawal can never overdraw.
type CreditStore struct {
	pool *pgxpool.Pool
}

// NewCreditStore creates a new CreditStore backed by the given connection pool.
func NewCreditStore(pool *pgxpool.Pool) *CreditStore {
	return &CreditStore{pool: pool}
}

// Deposit credits a participant's balance, creating the row on first use.
func (s *CreditStore) Deposit(ctx context.Context, participant common.Address, amount *big.Int) error {
	const query = `
		INSERT INTO oracle_credits (participant, balance)
		VALUES ($1, $2)
		ON CONFLICT (participant)
		DO UPDATE SET balance = oracle_credits.balance + EXCLUDED.balance, updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query, participant.Hex(), amount.String())
	if err != nil {
		return fmt.Errorf("postgres: deposit credit for %s: %w", participant.Hex(), err)
	}
	return nil
}

// Withdraw debits a participant's balance. The guard in the WHERE clause
// makes insufficient balance a zero-row update rather than a negative one.
func (s *CreditStore) Withdraw(ctx context.Context, participant common.Address, amount *big.Int) error {
	const query = `
		UPDATE oracle_credits
		SET balance = balance - $2, updated_at = NOW()
		WHERE participant = $1 AND balance >= $2`

	tag, err := s.pool.Exec(ctx, query, participant.Hex(), amount.String())
	if err != nil {
		return fmt.Errorf("postgres: withdraw credit for %s: %w", participant.Hex(), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientCredit
	}
	return nil
}

// Balance returns a participant's credit balance; absent rows are zero.
func (s *CreditStore) Balance(ctx context.Context, participant common.Address) (*big.Int, error) {
	const query = `SELECT balance FROM oracle_credits WHERE participant = $1`

	var balance string
	err := s.pool.QueryRow(ctx, query, participant.Hex()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: credit balance for %s: %w", participant.Hex(), err)
	}
	return parseAmount(balance)
}
