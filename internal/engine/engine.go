// Package engine composes the stake ledger, the lifecycle state machine, and
// the outcome resolver into the betting escrow core. The engine owns one
// record per fixture; every operation on a fixture runs under that fixture's
// mutex, so operations on the same fixture are serialized while distinct
// fixtures proceed in parallel. All preconditions are checked before the
// first mutation: a failed call leaves the fixture byte-for-byte unchanged.
package engine

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
	"github.com/NJCinnamond/sports-betting-dapp/internal/ledger"
	"github.com/NJCinnamond/sports-betting-dapp/internal/lifecycle"
	"github.com/NJCinnamond/sports-betting-dapp/internal/resolver"
)

// Config holds the fixed escrow parameters set at construction.
type Config struct {
	// AdvanceWindow is how far ahead of kickoff betting may open.
	AdvanceWindow time.Duration
	// CutoffWindow is how close to kickoff betting must freeze.
	CutoffWindow time.Duration
	// EntranceFee is the minimum stake amount in wei.
	EntranceFee *big.Int
	// CommissionRate is the house commission in whole percent.
	CommissionRate int64
	// HouseAddress receives commission and default payouts.
	HouseAddress common.Address
	// OracleRequestFee is the credit cost of one outbound oracle request,
	// debited from the house credit balance.
	OracleRequestFee *big.Int
}

// ReportSink archives settlement reports to durable storage. Archiving is
// best-effort: a sink failure never fails the settlement.
type ReportSink interface {
	ArchiveSettlement(ctx context.Context, report domain.SettlementReport) error
}

// Deps bundles the engine's infrastructure dependencies. Payouts and
// Commissions are required; the rest may be nil and are skipped.
type Deps struct {
	Payouts     domain.PayoutStore
	Commissions domain.CommissionStore
	Credits     domain.CreditStore
	Audit       domain.AuditStore
	Bus         domain.SignalBus
	Cache       domain.FixtureCache
	Oracle      domain.OracleClient
	Reports     ReportSink
}

// fixtureEntry is the mutual-exclusion unit for one fixture: its lifecycle
// record, its stake book, and its settlement status.
type fixtureEntry struct {
	mu      sync.Mutex
	fix     domain.Fixture
	book    *ledger.Book
	settled bool
	// lastResolutionError keeps the diagnostic of the most recent failed
	// result resolution; retryable result delivery overwrites it.
	lastResolutionError string
}

// Engine is the betting escrow core.
type Engine struct {
	cfg      Config
	machine  *lifecycle.Machine
	resolver *resolver.Resolver
	deps     Deps
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	fixtures map[domain.FixtureID]*fixtureEntry
}

// New creates an Engine with the given configuration and dependencies.
func New(cfg Config, deps Deps, logger *slog.Logger) *Engine {
	if cfg.EntranceFee == nil {
		cfg.EntranceFee = new(big.Int)
	}
	if cfg.OracleRequestFee == nil {
		cfg.OracleRequestFee = new(big.Int)
	}
	return &Engine{
		cfg:      cfg,
		machine:  lifecycle.New(cfg.AdvanceWindow, cfg.CutoffWindow),
		resolver: resolver.New(),
		deps:     deps,
		logger:   logger.With(slog.String("component", "engine")),
		now:      time.Now,
	}
}

// SetClock overrides the engine's wall clock. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// entry returns the record for id, creating it in the Closed default state
// on first reference.
func (e *Engine) entry(id domain.FixtureID) *fixtureEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fixtures == nil {
		e.fixtures = make(map[domain.FixtureID]*fixtureEntry)
	}
	ent, ok := e.fixtures[id]
	if !ok {
		ent = &fixtureEntry{
			fix:  domain.Fixture{ID: id, State: domain.BettingStateClosed},
			book: ledger.NewBook(),
		}
		e.fixtures[id] = ent
	}
	return ent
}

// peek returns the record for id without creating one.
func (e *Engine) peek(id domain.FixtureID) (*fixtureEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.fixtures[id]
	return ent, ok
}

// fixtureIDs snapshots the known fixture identifiers.
func (e *Engine) fixtureIDs() []domain.FixtureID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]domain.FixtureID, 0, len(e.fixtures))
	for id := range e.fixtures {
		ids = append(ids, id)
	}
	return ids
}

// OpenBetWindow records an external open-request: Closed moves to Opening
// and a kickoff-time request goes out to the oracle. The Opening state is
// verified against the betting window on the next reconcile.
func (e *Engine) OpenBetWindow(ctx context.Context, id domain.FixtureID) error {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.fix.State != domain.BettingStateClosed {
		return domain.ErrInvalidState
	}
	if ent.settled {
		return domain.ErrAlreadySettled
	}

	ent.fix.State = domain.BettingStateOpening
	e.publishStateChange(ctx, id, ent.fix.State)
	e.requestOracle(ctx, domain.OracleRequestKickoff, id)
	e.updateSnapshot(ctx, ent)
	return nil
}

// OnKickoffTimeDelivered stores an oracle-delivered kickoff time. The
// overwrite is unconditional: delivery may precede the fixture ever being
// opened, and a rescheduled fixture simply delivers again.
func (e *Engine) OnKickoffTimeDelivered(ctx context.Context, id domain.FixtureID, kickoff time.Time) {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	e.machine.SetKickoffTime(&ent.fix, kickoff)
	e.publish(ctx, id, domain.EventKickoffTimeUpdated, domain.KickoffTimeUpdatedPayload{
		KickoffTime: kickoff.Unix(),
	})
	e.updateSnapshot(ctx, ent)

	e.logger.InfoContext(ctx, "kickoff time updated",
		slog.String("fixture_id", string(id)),
		slog.Time("kickoff", kickoff),
	)
}

// Reconcile advances or resets the fixture's lifecycle state against now.
// An Opening fixture forced back to Closed is abandoned: all active stakes
// are refunded in full. A fixture that freezes into Awaiting triggers an
// outbound oracle result request.
func (e *Engine) Reconcile(ctx context.Context, id domain.FixtureID, now time.Time) (domain.BettingState, error) {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	state, changed := e.machine.Reconcile(&ent.fix, now)
	if !changed {
		return state, nil
	}

	e.publishStateChange(ctx, id, state)

	if state == domain.BettingStateClosed {
		e.refundAllLocked(ctx, ent)
	}
	if state == domain.BettingStateAwaiting {
		e.requestOracle(ctx, domain.OracleRequestResult, id)
	}
	e.updateSnapshot(ctx, ent)

	e.logger.InfoContext(ctx, "fixture state reconciled",
		slog.String("fixture_id", string(id)),
		slog.String("state", state.String()),
	)
	return state, nil
}

// ReconcileAll reconciles every known fixture against now.
func (e *Engine) ReconcileAll(ctx context.Context, now time.Time) {
	for _, id := range e.fixtureIDs() {
		if _, err := e.Reconcile(ctx, id, now); err != nil {
			e.logger.ErrorContext(ctx, "reconcile failed",
				slog.String("fixture_id", string(id)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// OnResultDelivered processes an oracle result delivery. Delivery is only
// meaningful once the fixture is frozen: Awaiting moves to Fulfilling and
// settlement runs. An unresolvable signal emits and persists a
// ResultResolutionFailed diagnostic and leaves the fixture in Fulfilling so
// a corrected signal can still settle it.
func (e *Engine) OnResultDelivered(ctx context.Context, id domain.FixtureID, signal domain.ResultSignal) error {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	switch ent.fix.State {
	case domain.BettingStateAwaiting:
		ent.fix.State = domain.BettingStateFulfilling
		e.publishStateChange(ctx, id, ent.fix.State)
	case domain.BettingStateFulfilling:
		// Retry after a failed resolution.
	default:
		return domain.ErrNotFulfilling
	}

	winning, err := e.resolver.Resolve(id, signal)
	if err != nil {
		ent.lastResolutionError = err.Error()
		e.publish(ctx, id, domain.EventResultResolutionFailed, domain.ResolutionFailedPayload{
			Message: err.Error(),
		})
		e.auditLog(ctx, "result_resolution_failed", map[string]any{
			"fixture_id": string(id),
			"signal":     signal.String(),
		})
		e.logger.WarnContext(ctx, "result resolution failed",
			slog.String("fixture_id", string(id)),
			slog.String("signal", signal.String()),
		)
		return err
	}
	ent.lastResolutionError = ""

	losing, err := e.resolver.LosingOutcomes(winning)
	if err != nil {
		return err
	}
	winningAmount := ent.book.Total(winning)
	totalAmount := ent.book.TotalForOutcomes([]domain.Outcome{winning, losing[0], losing[1]})

	return e.settleLocked(ctx, ent, winning, winningAmount, totalAmount)
}

// Settle runs a settlement pass directly with caller-supplied pool amounts.
// Fails unless the fixture is in Fulfilling state and not yet settled.
func (e *Engine) Settle(ctx context.Context, id domain.FixtureID, winning domain.Outcome, winningAmount, totalAmount *big.Int) error {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return e.settleLocked(ctx, ent, winning, winningAmount, totalAmount)
}

// RefundAllActive refunds every active stake on the fixture in full.
// Administrative: carries no state precondition.
func (e *Engine) RefundAllActive(ctx context.Context, id domain.FixtureID) error {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	e.refundAllLocked(ctx, ent)
	e.updateSnapshot(ctx, ent)
	return nil
}
