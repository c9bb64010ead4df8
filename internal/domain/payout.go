package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PayoutRecord is the net amount owed to a participant after settlement of a
// fixture. Written once per settlement pass; consumed by the out-of-scope
// withdrawal flow.
type PayoutRecord struct {
	FixtureID   FixtureID
	Participant common.Address
	NetAmount   *big.Int
	CreatedAt   time.Time
}

// CommissionRecord is the house commission accumulated by one settlement
// pass over a fixture.
type CommissionRecord struct {
	FixtureID FixtureID
	Amount    *big.Int
	CreatedAt time.Time
}

// SettlementReport is the full outcome of a settlement pass, archived to
// object storage for audit.
type SettlementReport struct {
	FixtureID      FixtureID      `json:"fixture_id"`
	WinningOutcome Outcome        `json:"winning_outcome"`
	WinningAmount  string         `json:"winning_amount"`
	TotalAmount    string         `json:"total_amount"`
	Payouts        []ReportPayout `json:"payouts"`
	Commission     string         `json:"commission"`
	Dust           string         `json:"dust"`
	SettledAt      time.Time      `json:"settled_at"`
}

// ReportPayout is one payout line inside a SettlementReport.
type ReportPayout struct {
	Participant string `json:"participant"`
	NetAmount   string `json:"net_amount"`
}
