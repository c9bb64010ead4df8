package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// PayoutStore persists write-once settlement payout records.
type PayoutStore interface {
	Record(ctx context.Context, rec PayoutRecord) error
	Get(ctx context.Context, fixtureID FixtureID, participant common.Address) (PayoutRecord, error)
	ListByFixture(ctx context.Context, fixtureID FixtureID) ([]PayoutRecord, error)
}

// CommissionStore persists per-fixture commission records.
type CommissionStore interface {
	Record(ctx context.Context, rec CommissionRecord) error
	Get(ctx context.Context, fixtureID FixtureID) (CommissionRecord, error)
}

// CreditStore persists oracle-fee credit balances per participant. Withdraw
// and Debit return ErrInsufficientCredit when the balance cannot cover the
// amount; no partial mutation happens in that case.
type CreditStore interface {
	Deposit(ctx context.Context, participant common.Address, amount *big.Int) error
	Withdraw(ctx context.Context, participant common.Address, amount *big.Int) error
	Balance(ctx context.Context, participant common.Address) (*big.Int, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only operational audit log (settlements,
// forced refunds, resolution failures).
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
