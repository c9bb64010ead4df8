package engine

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
	"github.com/NJCinnamond/sports-betting-dapp/internal/lifecycle"
)

var (
	house = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	addr1 = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	addr3 = common.HexToAddress("0x0000000000000000000000000000000000000003")

	kickoff = time.Unix(2_000_007_000, 0).UTC()
	// inWindow is comfortably inside the betting window.
	inWindow = kickoff.Add(-24 * time.Hour)
)

// eth returns n ether in wei.
func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// centiEth returns n hundredths of an ether in wei.
func centiEth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e16))
}

type fixtures struct {
	payouts     *memPayouts
	commissions *memCommissions
	credits     *memCredits
	audit       *memAudit
	bus         *recorderBus
	cache       *memCache
	oracle      *fakeOracle
	reports     *memReports
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fixtures) {
	t.Helper()

	f := &fixtures{
		payouts:     &memPayouts{},
		commissions: &memCommissions{},
		credits:     &memCredits{},
		audit:       &memAudit{},
		bus:         &recorderBus{},
		cache:       &memCache{},
		oracle:      &fakeOracle{},
		reports:     &memReports{},
	}
	require.NoError(t, f.credits.Deposit(context.Background(), house, big.NewInt(1_000_000)))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(cfg, Deps{
		Payouts:     f.payouts,
		Commissions: f.commissions,
		Credits:     f.credits,
		Audit:       f.audit,
		Bus:         f.bus,
		Cache:       f.cache,
		Oracle:      f.oracle,
		Reports:     f.reports,
	}, logger)
	e.SetClock(func() time.Time { return inWindow })
	return e, f
}

func defaultConfig() Config {
	return Config{
		AdvanceWindow:    lifecycle.DefaultAdvanceWindow,
		CutoffWindow:     lifecycle.DefaultCutoffWindow,
		EntranceFee:      big.NewInt(1e14), // 0.0001 ether
		CommissionRate:   1,
		HouseAddress:     house,
		OracleRequestFee: big.NewInt(100),
	}
}

// openFixture walks a fresh fixture to the Open state.
func openFixture(t *testing.T, e *Engine, id domain.FixtureID) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.OpenBetWindow(ctx, id))
	e.OnKickoffTimeDelivered(ctx, id, kickoff)
	state, err := e.Reconcile(ctx, id, inWindow)
	require.NoError(t, err)
	require.Equal(t, domain.BettingStateOpen, state)
}

func TestOpenBetWindow(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	require.NoError(t, e.OpenBetWindow(ctx, "1234"))
	assert.Equal(t, domain.BettingStateOpening, e.State("1234"))

	assert.Equal(t, []domain.FixtureID{"1234"}, f.oracle.kickoffs)

	bal, err := f.credits.Balance(ctx, house)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(999_900), bal, "kickoff request fee debited from house credit")

	changes := f.bus.ofType(domain.EventLifecycleStateChanged)
	require.Len(t, changes, 1)
}

func TestOpenBetWindow_InvalidState(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	require.NoError(t, e.OpenBetWindow(ctx, "1234"))
	assert.ErrorIs(t, e.OpenBetWindow(ctx, "1234"), domain.ErrInvalidState)
}

func TestOpenBetWindow_SkipsOracleWhenCreditExhausted(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	require.NoError(t, f.credits.Withdraw(ctx, house, big.NewInt(1_000_000)))

	require.NoError(t, e.OpenBetWindow(ctx, "1234"))
	assert.Equal(t, domain.BettingStateOpening, e.State("1234"), "transition stands without the request")
	assert.Empty(t, f.oracle.kickoffs)

	entries, err := f.audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "oracle_request_skipped", entries[0].Event)
}

func TestStake_Preconditions(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	// Betting never opened.
	err := e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(1))
	assert.ErrorIs(t, err, domain.ErrBettingNotOpen)

	openFixture(t, e, "1234")

	assert.ErrorIs(t, e.Stake(ctx, "1234", domain.OutcomeDefault, addr1, eth(1)), domain.ErrInvalidOutcome)
	assert.ErrorIs(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, nil), domain.ErrZeroAmount)
	assert.ErrorIs(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, new(big.Int)), domain.ErrZeroAmount)
	assert.ErrorIs(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, big.NewInt(1e13)), domain.ErrBelowEntranceFee)

	total, err := e.TotalStaked("1234", domain.OutcomeHome)
	require.NoError(t, err)
	assert.Zero(t, total.Sign(), "rejected stakes must not touch the ledger")
}

func TestStakeAndUnstake(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(2)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(1)))

	summary := e.StakeSummary("1234", addr1)
	assert.Equal(t, eth(3), summary.Get(domain.OutcomeHome))

	// Partial unstake.
	require.NoError(t, e.Unstake(ctx, "1234", domain.OutcomeHome, addr1, eth(1)))
	total, err := e.TotalStaked("1234", domain.OutcomeHome)
	require.NoError(t, err)
	assert.Equal(t, eth(2), total)

	// Over-withdrawal and absent stakes fail without mutation.
	assert.ErrorIs(t, e.Unstake(ctx, "1234", domain.OutcomeHome, addr1, eth(5)), domain.ErrStakeTooLow)
	assert.ErrorIs(t, e.Unstake(ctx, "1234", domain.OutcomeAway, addr1, eth(1)), domain.ErrNoStake)
	assert.ErrorIs(t, e.Unstake(ctx, "1234", domain.OutcomeHome, addr2, eth(1)), domain.ErrNoStake)
	assert.ErrorIs(t, e.Unstake(ctx, "1234", domain.OutcomeHome, addr1, nil), domain.ErrZeroAmount)

	assert.Len(t, f.bus.ofType(domain.EventStakeRecorded), 2)
	assert.Len(t, f.bus.ofType(domain.EventUnstakeRecorded), 1)
}

func TestUnstake_RequiresOpenState(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(1)))

	// Freeze betting.
	state, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, domain.BettingStateAwaiting, state)

	assert.ErrorIs(t, e.Unstake(ctx, "1234", domain.OutcomeHome, addr1, eth(1)), domain.ErrBettingNotOpen)
}

func TestReconcile_FreezeRequestsResult(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	state, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.BettingStateAwaiting, state)
	assert.Equal(t, []domain.FixtureID{"1234"}, f.oracle.results)
}

func TestReconcile_OpeningWithoutKickoffCloses(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	require.NoError(t, e.OpenBetWindow(ctx, "1234"))
	state, err := e.Reconcile(ctx, "1234", inWindow)
	require.NoError(t, err)
	assert.Equal(t, domain.BettingStateClosed, state)

	// Opening then Closed.
	assert.Len(t, f.bus.ofType(domain.EventLifecycleStateChanged), 2)
}

func TestSettlement_ProportionalPayouts(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(2)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr2, eth(1)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeAway, addr3, eth(6)))

	_, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)

	require.NoError(t, e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1)))

	assert.Equal(t, domain.BettingStateClosed, e.State("1234"))
	assert.True(t, e.Settled("1234"))

	// 9 ether pool, 3 ether winning pool, 1% commission:
	// addr1 gross 6 net 5.94, addr2 gross 3 net 2.97.
	p1, err := e.Payout(ctx, "1234", addr1)
	require.NoError(t, err)
	assert.Equal(t, centiEth(594), p1.NetAmount)

	p2, err := e.Payout(ctx, "1234", addr2)
	require.NoError(t, err)
	assert.Equal(t, centiEth(297), p2.NetAmount)

	_, err = e.Payout(ctx, "1234", addr3)
	assert.ErrorIs(t, err, domain.ErrNotFound, "losers get no payout record")

	com, err := e.Commission(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, centiEth(9), com.Amount)

	require.Len(t, f.reports.reports, 1)
	report := f.reports.reports[0]
	assert.Equal(t, domain.OutcomeHome, report.WinningOutcome)
	assert.Equal(t, eth(9).String(), report.TotalAmount)
	assert.Equal(t, "0", report.Dust)
	assert.Len(t, report.Payouts, 2)

	assert.Len(t, f.bus.ofType(domain.EventPayoutRecorded), 2)
	assert.Len(t, f.bus.ofType(domain.EventCommissionRecorded), 1)
}

func TestSettlement_NoWinningStake(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeAway, addr3, eth(6)))
	_, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)

	require.NoError(t, e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1)))

	// Whole pool defaults to the house as a single payout, no commission.
	p, err := e.Payout(ctx, "1234", house)
	require.NoError(t, err)
	assert.Equal(t, eth(6), p.NetAmount)

	_, err = e.Commission(ctx, "1234")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.bus.ofType(domain.EventCommissionRecorded))
}

func TestSettlement_Idempotent(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(1)))
	_, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1)))

	err = e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1))
	assert.ErrorIs(t, err, domain.ErrNotFulfilling)

	err = e.Settle(ctx, "1234", domain.OutcomeHome, eth(1), eth(1))
	assert.ErrorIs(t, err, domain.ErrNotFulfilling)
}

func TestSettlement_TruncationDust(t *testing.T) {
	cfg := defaultConfig()
	cfg.EntranceFee = big.NewInt(1)
	e, _ := newTestEngine(t, cfg)
	ctx := context.Background()
	openFixture(t, e, "1234")

	// 10 wei pool, 3 wei winning pool: shares truncate.
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, big.NewInt(1)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr2, big.NewInt(2)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeAway, addr3, big.NewInt(7)))

	_, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1)))

	p1, err := e.Payout(ctx, "1234", addr1)
	require.NoError(t, err)
	p2, err := e.Payout(ctx, "1234", addr2)
	require.NoError(t, err)
	com, err := e.Commission(ctx, "1234")
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(3), p1.NetAmount)
	assert.Equal(t, big.NewInt(6), p2.NetAmount)
	assert.Zero(t, com.Amount.Sign())

	// Conservation: paid + commission never exceeds the pool.
	disbursed := new(big.Int).Add(p1.NetAmount, p2.NetAmount)
	disbursed.Add(disbursed, com.Amount)
	assert.Equal(t, big.NewInt(9), disbursed)
	assert.Equal(t, 1, new(big.Int).Sub(big.NewInt(10), disbursed).Sign(), "dust stays in the pool")
}

func TestOnResultDelivered_UnknownSignal(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(1)))
	_, err := e.Reconcile(ctx, "1234", kickoff.Add(-time.Hour))
	require.NoError(t, err)

	err = e.OnResultDelivered(ctx, "1234", domain.TextSignal("postponed"))
	var unknown *domain.UnknownResultError
	require.ErrorAs(t, err, &unknown)

	assert.Equal(t, domain.BettingStateFulfilling, e.State("1234"), "fixture stays retryable")
	assert.False(t, e.Settled("1234"))
	assert.NotEmpty(t, e.LastResolutionError("1234"))
	assert.Len(t, f.bus.ofType(domain.EventResultResolutionFailed), 1)

	// A corrected delivery settles.
	require.NoError(t, e.OnResultDelivered(ctx, "1234", domain.TextSignal("HOME")))
	assert.True(t, e.Settled("1234"))
	assert.Empty(t, e.LastResolutionError("1234"))
}

func TestOnResultDelivered_WrongState(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	err := e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1))
	assert.ErrorIs(t, err, domain.ErrNotFulfilling)

	openFixture(t, e, "1234")
	err = e.OnResultDelivered(ctx, "1234", domain.NumericSignal(1))
	assert.ErrorIs(t, err, domain.ErrNotFulfilling, "delivery while Open is meaningless")
}

func TestRefundAllActive(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(2)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeDraw, addr2, eth(1)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeAway, addr3, eth(6)))

	require.NoError(t, e.RefundAllActive(ctx, "1234"))

	total, err := e.TotalStakedOutcomes("1234", []domain.Outcome{
		domain.OutcomeHome, domain.OutcomeDraw, domain.OutcomeAway,
	})
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
	assert.Zero(t, e.StakeSummary("1234", addr1).Get(domain.OutcomeHome).Sign())

	assert.Len(t, f.bus.ofType(domain.EventUnstakeRecorded), 3)

	entries, err := f.audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	var refundAudited bool
	for _, entry := range entries {
		if entry.Event == "fixture_refunded" {
			refundAudited = true
		}
	}
	assert.True(t, refundAudited)
}

func TestCreditLedger(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	require.NoError(t, e.DepositCredit(ctx, addr1, big.NewInt(500)))
	require.NoError(t, e.WithdrawCredit(ctx, addr1, big.NewInt(200)))

	bal, err := e.CreditBalance(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), bal)

	assert.ErrorIs(t, e.WithdrawCredit(ctx, addr1, big.NewInt(400)), domain.ErrInsufficientCredit)
	assert.ErrorIs(t, e.DepositCredit(ctx, addr1, new(big.Int)), domain.ErrZeroAmount)
}

func TestEnrichedAndSnapshot(t *testing.T) {
	e, f := newTestEngine(t, defaultConfig())
	ctx := context.Background()
	openFixture(t, e, "1234")

	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeHome, addr1, eth(2)))
	require.NoError(t, e.Stake(ctx, "1234", domain.OutcomeAway, addr3, eth(6)))

	enriched := e.Enriched("1234", addr1)
	assert.Equal(t, domain.BettingStateOpen, enriched.State)
	assert.Equal(t, eth(2), enriched.User.Get(domain.OutcomeHome))
	assert.Zero(t, enriched.User.Get(domain.OutcomeAway).Sign())
	assert.Equal(t, eth(6), enriched.Total.Get(domain.OutcomeAway))
	require.NotNil(t, enriched.KickoffTime)
	assert.Equal(t, kickoff, *enriched.KickoffTime)

	// Mutations keep the cached snapshot current.
	snap, err := f.cache.Get(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, eth(2).String(), snap.Total[domain.OutcomeHome.Index()])

	// Snapshot serves the cached copy.
	got := e.Snapshot(ctx, "1234")
	assert.Equal(t, snap.Total, got.Total)

	// Unknown fixtures resolve to an empty Closed snapshot.
	empty := e.Snapshot(ctx, "9999")
	assert.Equal(t, domain.BettingStateClosed, empty.State)
	assert.Equal(t, [3]string{"0", "0", "0"}, empty.Total)
}

func TestReconcileAll(t *testing.T) {
	e, _ := newTestEngine(t, defaultConfig())
	ctx := context.Background()

	require.NoError(t, e.OpenBetWindow(ctx, "1"))
	e.OnKickoffTimeDelivered(ctx, "1", kickoff)
	require.NoError(t, e.OpenBetWindow(ctx, "2")) // no kickoff: will close

	e.ReconcileAll(ctx, inWindow)

	assert.Equal(t, domain.BettingStateOpen, e.State("1"))
	assert.Equal(t, domain.BettingStateClosed, e.State("2"))
}
