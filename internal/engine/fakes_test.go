package engine

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// In-memory fakes for the engine's ports.

type memPayouts struct {
	mu   sync.Mutex
	recs []domain.PayoutRecord
}

func (m *memPayouts) Record(_ context.Context, rec domain.PayoutRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memPayouts) Get(_ context.Context, id domain.FixtureID, p common.Address) (domain.PayoutRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.FixtureID == id && r.Participant == p {
			return r, nil
		}
	}
	return domain.PayoutRecord{}, domain.ErrNotFound
}

func (m *memPayouts) ListByFixture(_ context.Context, id domain.FixtureID) ([]domain.PayoutRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PayoutRecord
	for _, r := range m.recs {
		if r.FixtureID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCommissions struct {
	mu   sync.Mutex
	recs map[domain.FixtureID]domain.CommissionRecord
}

func (m *memCommissions) Record(_ context.Context, rec domain.CommissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs == nil {
		m.recs = make(map[domain.FixtureID]domain.CommissionRecord)
	}
	m.recs[rec.FixtureID] = rec
	return nil
}

func (m *memCommissions) Get(_ context.Context, id domain.FixtureID) (domain.CommissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return domain.CommissionRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

type memCredits struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

func (m *memCredits) balance(p common.Address) *big.Int {
	if m.balances == nil {
		m.balances = make(map[common.Address]*big.Int)
	}
	b, ok := m.balances[p]
	if !ok {
		b = new(big.Int)
		m.balances[p] = b
	}
	return b
}

func (m *memCredits) Deposit(_ context.Context, p common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance(p).Add(m.balance(p), amount)
	return nil
}

func (m *memCredits) Withdraw(_ context.Context, p common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balance(p)
	if b.Cmp(amount) < 0 {
		return domain.ErrInsufficientCredit
	}
	b.Sub(b, amount)
	return nil
}

func (m *memCredits) Balance(_ context.Context, p common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balance(p)), nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAudit) Log(_ context.Context, event string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, domain.AuditEntry{
		ID:     int64(len(m.entries) + 1),
		Event:  event,
		Detail: detail,
	})
	return nil
}

func (m *memAudit) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.entries...), nil
}

// recorderBus captures every published event, decoded from its JSON frame.
type recorderBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recorderBus) Publish(_ context.Context, _ string, payload []byte) error {
	var ev domain.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recorderBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *recorderBus) StreamAppend(context.Context, string, []byte) error { return nil }

func (b *recorderBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func (b *recorderBus) ofType(typ domain.EventType) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Event
	for _, ev := range b.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type memCache struct {
	mu    sync.Mutex
	snaps map[domain.FixtureID]domain.FixtureSnapshot
}

func (m *memCache) Set(_ context.Context, snap domain.FixtureSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = make(map[domain.FixtureID]domain.FixtureSnapshot)
	}
	m.snaps[snap.FixtureID] = snap
	return nil
}

func (m *memCache) Get(_ context.Context, id domain.FixtureID) (domain.FixtureSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[id]
	if !ok {
		return domain.FixtureSnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

func (m *memCache) Invalidate(_ context.Context, id domain.FixtureID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	return nil
}

// fakeOracle records outbound requests.
type fakeOracle struct {
	mu       sync.Mutex
	kickoffs []domain.FixtureID
	results  []domain.FixtureID
}

func (o *fakeOracle) RequestKickoffTime(_ context.Context, id domain.FixtureID) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kickoffs = append(o.kickoffs, id)
	return "req-kickoff", nil
}

func (o *fakeOracle) RequestResult(_ context.Context, id domain.FixtureID) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, id)
	return "req-result", nil
}

type memReports struct {
	mu      sync.Mutex
	reports []domain.SettlementReport
}

func (m *memReports) ArchiveSettlement(_ context.Context, report domain.SettlementReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return nil
}
