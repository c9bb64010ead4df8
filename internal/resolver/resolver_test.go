package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

func TestResolve_NumericCodes(t *testing.T) {
	r := New()

	tests := []struct {
		code int64
		want domain.Outcome
	}{
		{1, domain.OutcomeHome},
		{2, domain.OutcomeDraw},
		{3, domain.OutcomeAway},
	}
	for _, tt := range tests {
		got, err := r.Resolve("1234", domain.NumericSignal(tt.code))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestResolve_TextCodes(t *testing.T) {
	r := New()

	tests := []struct {
		text string
		want domain.Outcome
	}{
		{"HOME", domain.OutcomeHome},
		{"home", domain.OutcomeHome},
		{"H", domain.OutcomeHome},
		{"1", domain.OutcomeHome},
		{"Draw", domain.OutcomeDraw},
		{"X", domain.OutcomeDraw},
		{"D", domain.OutcomeDraw},
		{"AWAY", domain.OutcomeAway},
		{" away ", domain.OutcomeAway},
		{"2", domain.OutcomeAway},
	}
	for _, tt := range tests {
		got, err := r.Resolve("1234", domain.TextSignal(tt.text))
		require.NoError(t, err, "text %q", tt.text)
		assert.Equal(t, tt.want, got, "text %q", tt.text)
	}
}

func TestResolve_UnknownSignals(t *testing.T) {
	r := New()

	for _, sig := range []domain.ResultSignal{
		domain.NumericSignal(0), // reserved "no result yet" code
		domain.NumericSignal(69),
		domain.NumericSignal(-1),
		domain.TextSignal(""),
		domain.TextSignal("postponed"),
	} {
		_, err := r.Resolve("1234", sig)
		require.Error(t, err, "signal %s", sig)

		var unknown *domain.UnknownResultError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, domain.FixtureID("1234"), unknown.FixtureID)
		assert.Contains(t, unknown.Error(), "fixture 1234")
		assert.Contains(t, unknown.Error(), "unknown fixture result")
	}
}

func TestLosingOutcomes(t *testing.T) {
	r := New()

	tests := []struct {
		winning domain.Outcome
		want    [2]domain.Outcome
	}{
		{domain.OutcomeHome, [2]domain.Outcome{domain.OutcomeDraw, domain.OutcomeAway}},
		{domain.OutcomeDraw, [2]domain.Outcome{domain.OutcomeHome, domain.OutcomeAway}},
		{domain.OutcomeAway, [2]domain.Outcome{domain.OutcomeHome, domain.OutcomeDraw}},
	}
	for _, tt := range tests {
		got, err := r.LosingOutcomes(tt.winning)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLosingOutcomes_Invalid(t *testing.T) {
	r := New()

	for _, o := range []domain.Outcome{domain.OutcomeDefault, domain.Outcome(100)} {
		_, err := r.LosingOutcomes(o)
		assert.ErrorIs(t, err, domain.ErrInvalidOutcome)
	}
}
