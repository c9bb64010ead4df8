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

// PayoutStore implements domain.PayoutStore using PostgreSQL. Amounts are
// stored as NUMERIC(78,0), wide enough for any uint256 wei value.
type PayoutStore struct {
	pool *pgxpool.Pool
}

// NewPayoutStore creates a new PayoutStore backed by the given connection pool.
func NewPayoutStore(pool *pgxpool.Pool) *PayoutStore {
	return &PayoutStore{pool: pool}
}

// Record inserts a settlement payout record. Records are write-once per
// (fixture, participant); replaying the same settlement pass is a no-op.
func (s *PayoutStore) Record(ctx context.Context, rec domain.PayoutRecord) error {
	const query = `
		INSERT INTO payouts (fixture_id, participant, net_amount, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fixture_id, participant) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		string(rec.FixtureID), rec.Participant.Hex(), rec.NetAmount.String(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record payout for fixture %s: %w", rec.FixtureID, err)
	}
	return nil
}

// Get returns the payout owed to participant on a fixture.
func (s *PayoutStore) Get(ctx context.Context, fixtureID domain.FixtureID, participant common.Address) (domain.PayoutRecord, error) {
	const query = `
		SELECT net_amount, created_at FROM payouts
		WHERE fixture_id = $1 AND participant = $2`

	rec := domain.PayoutRecord{FixtureID: fixtureID, Participant: participant}
	var amount string
	err := s.pool.QueryRow(ctx, query, string(fixtureID), participant.Hex()).
		Scan(&amount, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PayoutRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PayoutRecord{}, fmt.Errorf("postgres: get payout for fixture %s: %w", fixtureID, err)
	}

	rec.NetAmount, err = parseAmount(amount)
	if err != nil {
		return domain.PayoutRecord{}, fmt.Errorf("postgres: payout for fixture %s: %w", fixtureID, err)
	}
	return rec, nil
}

// ListByFixture returns every payout written for a fixture, largest first.
func (s *PayoutStore) ListByFixture(ctx context.Context, fixtureID domain.FixtureID) ([]domain.PayoutRecord, error) {
	const query = `
		SELECT participant, net_amount, created_at FROM payouts
		WHERE fixture_id = $1
		ORDER BY net_amount DESC`

	rows, err := s.pool.Query(ctx, query, string(fixtureID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list payouts for fixture %s: %w", fixtureID, err)
	}
	defer rows.Close()

	var recs []domain.PayoutRecord
	for rows.Next() {
		rec := domain.PayoutRecord{FixtureID: fixtureID}
		var participant, amount string
		if err := rows.Scan(&participant, &amount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan payout: %w", err)
		}
		rec.Participant = common.HexToAddress(participant)
		if rec.NetAmount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("postgres: payout for fixture %s: %w", fixtureID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list payouts rows: %w", err)
	}
	return recs, nil
}

// parseAmount converts a NUMERIC(78,0) column value back to a big.Int.
func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	return amount, nil
}
