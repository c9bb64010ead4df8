package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// CommissionStore implements domain.CommissionStore using PostgreSQL.
type CommissionStore struct {
	pool *pgxpool.Pool
}

// NewCommissionStore creates a new CommissionStore backed by the given
// connection pool.
func NewCommissionStore(pool *pgxpool.Pool) *CommissionStore {
	return &CommissionStore{pool: pool}
}

// Record upserts the commission accumulated by a settlement pass. One row
// per fixture.
func (s *CommissionStore) Record(ctx context.Context, rec domain.CommissionRecord) error {
	const query = `
		INSERT INTO commissions (fixture_id, amount, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (fixture_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, string(rec.FixtureID), rec.Amount.String(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: record commission for fixture %s: %w", rec.FixtureID, err)
	}
	return nil
}

// Get returns the commission record for a fixture.
func (s *CommissionStore) Get(ctx context.Context, fixtureID domain.FixtureID) (domain.CommissionRecord, error) {
	const query = `SELECT amount, created_at FROM commissions WHERE fixture_id = $1`

	rec := domain.CommissionRecord{FixtureID: fixtureID}
	var amount string
	err := s.pool.QueryRow(ctx, query, string(fixtureID)).Scan(&amount, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CommissionRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CommissionRecord{}, fmt.Errorf("postgres: get commission for fixture %s: %w", fixtureID, err)
	}

	rec.Amount, err = parseAmount(amount)
	if err != nil {
		return domain.CommissionRecord{}, fmt.Errorf("postgres: commission for fixture %s: %w", fixtureID, err)
	}
	return rec, nil
}
