package domain

import (
	"fmt"
	"strings"
)

// Outcome is one of a fixture's mutually exclusive resolutions. The zero
// value mirrors the provider's "no result yet" code and is never a legal
// resolution.
type Outcome int

const (
	OutcomeDefault Outcome = iota
	OutcomeHome
	OutcomeDraw
	OutcomeAway
)

// Outcomes lists the three resolvable outcomes in their canonical order.
var Outcomes = [3]Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}

// Valid reports whether o is a resolvable outcome. OutcomeDefault is not.
func (o Outcome) Valid() bool {
	return o >= OutcomeHome && o <= OutcomeAway
}

// Index returns o's position in outcome-indexed vectors (Home=0, Draw=1,
// Away=2). Callers must check Valid first.
func (o Outcome) Index() int {
	return int(o) - 1
}

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeHome:
		return "home"
	case OutcomeDraw:
		return "draw"
	case OutcomeAway:
		return "away"
	case OutcomeDefault:
		return "default"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome maps an outcome name from the API ("home", "draw", "away",
// case-insensitive) to its Outcome value.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return OutcomeHome, nil
	case "draw":
		return OutcomeDraw, nil
	case "away":
		return OutcomeAway, nil
	default:
		return OutcomeDefault, fmt.Errorf("parse outcome %q: %w", s, ErrInvalidOutcome)
	}
}

// ResultSignal is the raw fixture result delivered by the oracle. Result
// feeds have historically delivered both numeric codes and text codes, so
// both encodings are carried; the resolver normalizes them to an Outcome.
type ResultSignal struct {
	Code   int64
	Text   string
	IsText bool
}

// NumericSignal wraps a numeric result code.
func NumericSignal(code int64) ResultSignal {
	return ResultSignal{Code: code}
}

// TextSignal wraps a text result code.
func TextSignal(text string) ResultSignal {
	return ResultSignal{Text: text, IsText: true}
}

// String renders the signal for diagnostics.
func (s ResultSignal) String() string {
	if s.IsText {
		return fmt.Sprintf("%q", s.Text)
	}
	return fmt.Sprintf("%d", s.Code)
}
