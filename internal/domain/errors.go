package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrBettingNotOpen     = errors.New("bet activity is not open")
	ErrBelowEntranceFee   = errors.New("amount is below entrance fee")
	ErrZeroAmount         = errors.New("amount should exceed zero")
	ErrNoStake            = errors.New("no stake on this address-result")
	ErrStakeTooLow        = errors.New("current stake too low")
	ErrNotFulfilling      = errors.New("bet state not fulfilling")
	ErrAlreadySettled     = errors.New("fixture already settled")
	ErrInvalidOutcome     = errors.New("invalid fixture outcome")
	ErrInvalidState       = errors.New("invalid betting state")
	ErrInsufficientCredit = errors.New("insufficient oracle credit")
	ErrRateLimited        = errors.New("rate limited")
	ErrLockHeld           = errors.New("lock already held")
)

// UnknownResultError is the typed resolution failure returned when the oracle
// delivers a signal that maps to no outcome. The engine emits it as a
// ResultResolutionFailed event and leaves the fixture unsettled.
type UnknownResultError struct {
	FixtureID FixtureID
	Signal    ResultSignal
}

func (e *UnknownResultError) Error() string {
	return fmt.Sprintf("error on fixture %s: unknown fixture result %s from oracle", e.FixtureID, e.Signal)
}
