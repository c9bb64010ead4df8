package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

var kickoff = time.Unix(2_000_007_000, 0).UTC()

func fixtureIn(state domain.BettingState, withKickoff bool) *domain.Fixture {
	fix := &domain.Fixture{ID: "1234", State: state}
	if withKickoff {
		t := kickoff
		fix.KickoffTime = &t
	}
	return fix
}

func TestReconcile_Opening(t *testing.T) {
	m := New(DefaultAdvanceWindow, DefaultCutoffWindow)

	tests := []struct {
		name        string
		withKickoff bool
		now         time.Time
		want        domain.BettingState
		wantChanged bool
	}{
		{
			name: "no kickoff time closes",
			now:  kickoff.Add(-24 * time.Hour),
			want: domain.BettingStateClosed, wantChanged: true,
		},
		{
			name:        "too far from kickoff closes",
			withKickoff: true,
			now:         kickoff.Add(-DefaultAdvanceWindow - time.Second),
			want:        domain.BettingStateClosed, wantChanged: true,
		},
		{
			name:        "advance boundary opens",
			withKickoff: true,
			now:         kickoff.Add(-DefaultAdvanceWindow),
			want:        domain.BettingStateOpen, wantChanged: true,
		},
		{
			name:        "inside window opens",
			withKickoff: true,
			now:         kickoff.Add(-24 * time.Hour),
			want:        domain.BettingStateOpen, wantChanged: true,
		},
		{
			name:        "91 minutes before kickoff opens",
			withKickoff: true,
			now:         kickoff.Add(-91 * time.Minute),
			want:        domain.BettingStateOpen, wantChanged: true,
		},
		{
			name:        "cutoff boundary is already too close",
			withKickoff: true,
			now:         kickoff.Add(-DefaultCutoffWindow),
			want:        domain.BettingStateClosed, wantChanged: true,
		},
		{
			name:        "inside cutoff closes",
			withKickoff: true,
			now:         kickoff.Add(-DefaultCutoffWindow + time.Second),
			want:        domain.BettingStateClosed, wantChanged: true,
		},
		{
			name:        "after kickoff closes",
			withKickoff: true,
			now:         kickoff.Add(time.Hour),
			want:        domain.BettingStateClosed, wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := fixtureIn(domain.BettingStateOpening, tt.withKickoff)
			got, changed := m.Reconcile(fix, tt.now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, fix.State)
		})
	}
}

func TestReconcile_Open(t *testing.T) {
	m := New(DefaultAdvanceWindow, DefaultCutoffWindow)

	t.Run("far from kickoff stays open", func(t *testing.T) {
		fix := fixtureIn(domain.BettingStateOpen, true)
		got, changed := m.Reconcile(fix, kickoff.Add(-2*time.Hour))
		assert.Equal(t, domain.BettingStateOpen, got)
		assert.False(t, changed)
	})

	t.Run("cutoff boundary freezes to awaiting", func(t *testing.T) {
		fix := fixtureIn(domain.BettingStateOpen, true)
		got, changed := m.Reconcile(fix, kickoff.Add(-DefaultCutoffWindow))
		assert.Equal(t, domain.BettingStateAwaiting, got)
		assert.True(t, changed)
	})

	t.Run("inside cutoff freezes to awaiting", func(t *testing.T) {
		fix := fixtureIn(domain.BettingStateOpen, true)
		got, changed := m.Reconcile(fix, kickoff.Add(-10*time.Minute))
		assert.Equal(t, domain.BettingStateAwaiting, got)
		assert.True(t, changed)
	})

	t.Run("missing kickoff stays open", func(t *testing.T) {
		fix := fixtureIn(domain.BettingStateOpen, false)
		got, changed := m.Reconcile(fix, kickoff)
		assert.Equal(t, domain.BettingStateOpen, got)
		assert.False(t, changed)
	})
}

func TestReconcile_OtherStatesUntouched(t *testing.T) {
	m := New(DefaultAdvanceWindow, DefaultCutoffWindow)

	for _, state := range []domain.BettingState{
		domain.BettingStateClosed,
		domain.BettingStateAwaiting,
		domain.BettingStateFulfilling,
	} {
		fix := fixtureIn(state, true)
		got, changed := m.Reconcile(fix, kickoff.Add(-time.Hour))
		assert.Equal(t, state, got)
		assert.False(t, changed)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	m := New(DefaultAdvanceWindow, DefaultCutoffWindow)
	now := kickoff.Add(-24 * time.Hour)

	fix := fixtureIn(domain.BettingStateOpening, true)
	first, changed := m.Reconcile(fix, now)
	assert.True(t, changed)

	second, changed := m.Reconcile(fix, now)
	assert.Equal(t, first, second)
	assert.False(t, changed, "second reconcile at the same instant must not transition again")
}

func TestSetKickoffTime_Overwrites(t *testing.T) {
	m := New(0, 0)
	fix := fixtureIn(domain.BettingStateClosed, false)

	m.SetKickoffTime(fix, kickoff)
	assert.True(t, fix.HasKickoff())
	assert.Equal(t, kickoff, *fix.KickoffTime)

	later := kickoff.Add(48 * time.Hour)
	m.SetKickoffTime(fix, later)
	assert.Equal(t, later, *fix.KickoffTime)
}
