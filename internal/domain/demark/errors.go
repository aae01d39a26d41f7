package demark

import (
	"errors"
	"fmt"
)

// ErrInsufficientHistory signals that a query needs more bars than the engine
// has seen. Callers decide whether to propagate or suppress it.
var ErrInsufficientHistory = errors.New("insufficient bar history")

// InsufficientHistoryError reports how far short of a calculator's required
// lookback the series currently is.
type InsufficientHistoryError struct {
	Component string
	Need      int
	Have      int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s: insufficient bar history: need %d, have %d", e.Component, e.Need, e.Have)
}

func (e *InsufficientHistoryError) Unwrap() error { return ErrInsufficientHistory }
