// Package resolver maps raw oracle result signals onto domain outcomes.
// Result feeds have delivered both numeric codes (1=home, 2=draw, 3=away)
// and text codes over time, so the resolver accepts the tagged signal
// variant and normalizes both encodings. A zero or empty signal means "no
// result yet" and never resolves.
package resolver

import (
	"strings"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// Resolver is stateless; the zero value is ready to use.
type Resolver struct{}

// New returns a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve maps a raw result signal to an outcome. Unresolvable signals
// return an *UnknownResultError naming the fixture and the offending signal.
func (r *Resolver) Resolve(fixtureID domain.FixtureID, signal domain.ResultSignal) (domain.Outcome, error) {
	if signal.IsText {
		if o, ok := resolveText(signal.Text); ok {
			return o, nil
		}
	} else if o := domain.Outcome(signal.Code); o.Valid() {
		return o, nil
	}
	return domain.OutcomeDefault, &domain.UnknownResultError{FixtureID: fixtureID, Signal: signal}
}

// resolveText normalizes the text encodings observed across feed versions:
// full names, single letters, and the 1/X/2 convention.
func resolveText(text string) (domain.Outcome, bool) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "HOME", "H", "1":
		return domain.OutcomeHome, true
	case "DRAW", "D", "X":
		return domain.OutcomeDraw, true
	case "AWAY", "A", "2":
		return domain.OutcomeAway, true
	default:
		return domain.OutcomeDefault, false
	}
}

// LosingOutcomes returns the two outcomes other than winning, in canonical
// order. It fails on out-of-range values, including OutcomeDefault.
func (r *Resolver) LosingOutcomes(winning domain.Outcome) ([2]domain.Outcome, error) {
	switch winning {
	case domain.OutcomeHome:
		return [2]domain.Outcome{domain.OutcomeDraw, domain.OutcomeAway}, nil
	case domain.OutcomeDraw:
		return [2]domain.Outcome{domain.OutcomeHome, domain.OutcomeAway}, nil
	case domain.OutcomeAway:
		return [2]domain.Outcome{domain.OutcomeHome, domain.OutcomeDraw}, nil
	default:
		return [2]domain.Outcome{}, domain.ErrInvalidOutcome
	}
}
