// Package ledger implements the per-fixture stake book: per-outcome totals,
// per-participant balances, the append-only historical participant log, and
// the active participant set. The book does no locking and no state gating;
// the engine serializes access per fixture and checks lifecycle preconditions
// before calling in.
package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// pool is the stake state for one fixture-outcome pair.
type pool struct {
	// total is the accumulated stake across all participants.
	total *big.Int
	// balances maps participant to currently staked amount. Entries are
	// zeroed, never removed, on full unstake so the historical invariant
	// stays checkable.
	balances map[common.Address]*big.Int
	// historical is the append-only log of everyone who ever staked.
	// Position 0 is reserved for the zero-address sentinel.
	historical []common.Address
	// active marks participants with a nonzero balance.
	active map[common.Address]bool
}

func newPool() *pool {
	return &pool{
		total:      new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		historical: []common.Address{domain.ZeroParticipant},
		active:     make(map[common.Address]bool),
	}
}

// Book holds all stake state for a single fixture.
type Book struct {
	pools [3]*pool
}

// NewBook returns an empty book with the sentinel installed in each
// outcome's historical log.
func NewBook() *Book {
	b := &Book{}
	for i := range b.pools {
		b.pools[i] = newPool()
	}
	return b
}

func (b *Book) pool(o domain.Outcome) *pool {
	return b.pools[o.Index()]
}

// StakeEntry is one (outcome, participant, amount) triple, as returned by
// ActiveStakes.
type StakeEntry struct {
	Outcome     domain.Outcome
	Participant common.Address
	Amount      *big.Int
}

// AddStake credits amount to the participant's balance on the given outcome.
// A first-ever stake on this fixture-outcome appends the participant to the
// historical log; the participant is always marked active afterwards. The
// caller has already validated the amount and the fixture state.
func (b *Book) AddStake(o domain.Outcome, participant common.Address, amount *big.Int) {
	p := b.pool(o)

	bal, ok := p.balances[participant]
	if !ok {
		bal = new(big.Int)
		p.balances[participant] = bal
		p.historical = append(p.historical, participant)
	}
	bal.Add(bal, amount)
	p.total.Add(p.total, amount)
	p.active[participant] = true
}

// RemoveStake debits amount from the participant's balance on the given
// outcome. It fails with ErrNoStake when the participant holds no stake on
// this fixture-outcome and with ErrStakeTooLow when amount exceeds the
// balance; on failure nothing changes. A balance reaching zero clears the
// active flag; the historical log is retained regardless.
func (b *Book) RemoveStake(o domain.Outcome, participant common.Address, amount *big.Int) error {
	p := b.pool(o)

	bal, ok := p.balances[participant]
	if !ok || bal.Sign() == 0 {
		return domain.ErrNoStake
	}
	if amount.Cmp(bal) > 0 {
		return domain.ErrStakeTooLow
	}

	bal.Sub(bal, amount)
	p.total.Sub(p.total, amount)
	if bal.Sign() == 0 {
		p.active[participant] = false
	}
	return nil
}

// Balance returns a copy of the participant's current stake on the outcome.
func (b *Book) Balance(o domain.Outcome, participant common.Address) *big.Int {
	if bal, ok := b.pool(o).balances[participant]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Total returns a copy of the outcome's accumulated stake.
func (b *Book) Total(o domain.Outcome) *big.Int {
	return new(big.Int).Set(b.pool(o).total)
}

// TotalForOutcomes sums the accumulated stake over the given outcomes.
func (b *Book) TotalForOutcomes(outcomes []domain.Outcome) *big.Int {
	sum := new(big.Int)
	for _, o := range outcomes {
		sum.Add(sum, b.pool(o).total)
	}
	return sum
}

// GrandTotal sums the accumulated stake over all three outcomes.
func (b *Book) GrandTotal() *big.Int {
	return b.TotalForOutcomes(domain.Outcomes[:])
}

// IsActive reports whether the participant currently holds a nonzero stake
// on the outcome.
func (b *Book) IsActive(o domain.Outcome, participant common.Address) bool {
	return b.pool(o).active[participant]
}

// Historical returns a copy of the outcome's historical participant log,
// sentinel included at position 0.
func (b *Book) Historical(o domain.Outcome) []common.Address {
	p := b.pool(o)
	out := make([]common.Address, len(p.historical))
	copy(out, p.historical)
	return out
}

// ActiveHistorical returns the outcome's historical participants that are
// still active, in first-stake order. The sentinel is skipped.
func (b *Book) ActiveHistorical(o domain.Outcome) []common.Address {
	p := b.pool(o)
	var out []common.Address
	for _, addr := range p.historical[1:] {
		if p.active[addr] {
			out = append(out, addr)
		}
	}
	return out
}

// ActiveStakes returns every live stake across all outcomes in historical
// order, with copied amounts. Used by the full-refund path, which mutates
// the book while consuming the result.
func (b *Book) ActiveStakes() []StakeEntry {
	var out []StakeEntry
	for _, o := range domain.Outcomes {
		p := b.pool(o)
		for _, addr := range p.historical[1:] {
			if !p.active[addr] {
				continue
			}
			out = append(out, StakeEntry{
				Outcome:     o,
				Participant: addr,
				Amount:      new(big.Int).Set(p.balances[addr]),
			})
		}
	}
	return out
}

// UserVector returns the participant's stakes across all outcomes.
func (b *Book) UserVector(participant common.Address) domain.StakeVector {
	v := domain.NewStakeVector()
	for _, o := range domain.Outcomes {
		if bal, ok := b.pool(o).balances[participant]; ok {
			v.Set(o, bal)
		}
	}
	return v
}

// TotalVector returns the per-outcome totals.
func (b *Book) TotalVector() domain.StakeVector {
	v := domain.NewStakeVector()
	for _, o := range domain.Outcomes {
		v.Set(o, b.pool(o).total)
	}
	return v
}
