package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

var (
	addrA = common.HexToAddress("0x000000000000000000000000000000000000000a")
	addrB = common.HexToAddress("0x000000000000000000000000000000000000000b")
	addrC = common.HexToAddress("0x000000000000000000000000000000000000000c")
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// checkConsistency asserts the ledger invariants: totalStaked equals the sum
// of balances, and the active flag tracks nonzero balances.
func checkConsistency(t *testing.T, b *Book) {
	t.Helper()
	for _, o := range domain.Outcomes {
		sum := new(big.Int)
		for _, addr := range b.Historical(o)[1:] {
			bal := b.Balance(o, addr)
			sum.Add(sum, bal)
			assert.Equal(t, bal.Sign() != 0, b.IsActive(o, addr),
				"active flag mismatch for %s on %s", addr, o)
		}
		assert.Zero(t, b.Total(o).Cmp(sum), "total != sum(balances) for %s", o)
	}
}

func TestBook_SentinelInstalled(t *testing.T) {
	b := NewBook()
	for _, o := range domain.Outcomes {
		hist := b.Historical(o)
		require.Len(t, hist, 1)
		assert.Equal(t, domain.ZeroParticipant, hist[0])
	}
}

func TestBook_AddStake_RepeatStakesSingleHistoricalEntry(t *testing.T) {
	b := NewBook()

	b.AddStake(domain.OutcomeHome, addrA, eth(2))
	b.AddStake(domain.OutcomeHome, addrA, eth(1))

	assert.Zero(t, b.Balance(domain.OutcomeHome, addrA).Cmp(eth(3)))
	assert.Zero(t, b.Total(domain.OutcomeHome).Cmp(eth(3)))

	hist := b.Historical(domain.OutcomeHome)
	require.Len(t, hist, 2)
	assert.Equal(t, addrA, hist[1])
	assert.True(t, b.IsActive(domain.OutcomeHome, addrA))

	checkConsistency(t, b)
}

func TestBook_RemoveStake_Partial(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))

	require.NoError(t, b.RemoveStake(domain.OutcomeHome, addrA, eth(1)))

	assert.Zero(t, b.Balance(domain.OutcomeHome, addrA).Cmp(eth(1)))
	assert.True(t, b.IsActive(domain.OutcomeHome, addrA))
	checkConsistency(t, b)
}

func TestBook_RemoveStake_FullClearsActiveKeepsHistory(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))

	require.NoError(t, b.RemoveStake(domain.OutcomeHome, addrA, eth(2)))

	assert.Zero(t, b.Balance(domain.OutcomeHome, addrA).Sign())
	assert.False(t, b.IsActive(domain.OutcomeHome, addrA))

	hist := b.Historical(domain.OutcomeHome)
	require.Len(t, hist, 2)
	assert.Equal(t, addrA, hist[1])
	checkConsistency(t, b)
}

func TestBook_RemoveStake_Errors(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))

	err := b.RemoveStake(domain.OutcomeHome, addrB, eth(1))
	assert.ErrorIs(t, err, domain.ErrNoStake)

	err = b.RemoveStake(domain.OutcomeAway, addrA, eth(1))
	assert.ErrorIs(t, err, domain.ErrNoStake, "stake on another outcome does not count")

	err = b.RemoveStake(domain.OutcomeHome, addrA, eth(3))
	assert.ErrorIs(t, err, domain.ErrStakeTooLow)

	// Failed removals leave the book untouched.
	assert.Zero(t, b.Balance(domain.OutcomeHome, addrA).Cmp(eth(2)))
	checkConsistency(t, b)

	// Fully unstaked participants are treated as having no stake again.
	require.NoError(t, b.RemoveStake(domain.OutcomeHome, addrA, eth(2)))
	err = b.RemoveStake(domain.OutcomeHome, addrA, eth(1))
	assert.ErrorIs(t, err, domain.ErrNoStake)
}

func TestBook_TotalForOutcomes(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))
	b.AddStake(domain.OutcomeAway, addrB, eth(1))
	b.AddStake(domain.OutcomeDraw, addrC, eth(3))
	b.AddStake(domain.OutcomeHome, addrB, eth(4))
	b.AddStake(domain.OutcomeHome, addrA, eth(3))

	got := b.TotalForOutcomes([]domain.Outcome{domain.OutcomeHome, domain.OutcomeDraw})
	assert.Zero(t, got.Cmp(eth(12)))
	assert.Zero(t, b.GrandTotal().Cmp(eth(13)))
}

func TestBook_ActiveHistorical_OrderAndFiltering(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))
	b.AddStake(domain.OutcomeHome, addrB, eth(1))
	b.AddStake(domain.OutcomeHome, addrC, eth(5))

	require.NoError(t, b.RemoveStake(domain.OutcomeHome, addrB, eth(1)))

	got := b.ActiveHistorical(domain.OutcomeHome)
	assert.Equal(t, []common.Address{addrA, addrC}, got)
}

func TestBook_ActiveStakes_SpansOutcomes(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))
	b.AddStake(domain.OutcomeAway, addrA, eth(1))
	b.AddStake(domain.OutcomeHome, addrB, eth(4))
	b.AddStake(domain.OutcomeDraw, addrB, eth(2))

	entries := b.ActiveStakes()
	require.Len(t, entries, 4)

	// Refund everything through the same primitive and verify the book
	// drains completely.
	for _, e := range entries {
		require.NoError(t, b.RemoveStake(e.Outcome, e.Participant, e.Amount))
	}
	assert.Zero(t, b.GrandTotal().Sign())
	assert.Empty(t, b.ActiveStakes())
	checkConsistency(t, b)
}

func TestBook_Vectors(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))
	b.AddStake(domain.OutcomeAway, addrA, eth(1))
	b.AddStake(domain.OutcomeHome, addrB, eth(4))
	b.AddStake(domain.OutcomeAway, addrB, eth(2))

	user := b.UserVector(addrA)
	assert.Equal(t, [3]string{"2000000000000000000", "0", "1000000000000000000"}, user.Strings())

	total := b.TotalVector()
	assert.Equal(t, [3]string{"6000000000000000000", "0", "3000000000000000000"}, total.Strings())
}

func TestBook_ReturnedAmountsAreCopies(t *testing.T) {
	b := NewBook()
	b.AddStake(domain.OutcomeHome, addrA, eth(2))

	b.Balance(domain.OutcomeHome, addrA).SetInt64(0)
	b.Total(domain.OutcomeHome).SetInt64(0)

	assert.Zero(t, b.Balance(domain.OutcomeHome, addrA).Cmp(eth(2)))
	assert.Zero(t, b.Total(domain.OutcomeHome).Cmp(eth(2)))
}
