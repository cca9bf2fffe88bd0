package engine

import "errors"

// ErrInsufficientSeries is spec.md's INSUFFICIENT_SERIES error kind: the
// supplied price or rate series is shorter than the run's horizon
// requires.
var ErrInsufficientSeries = errors.New("engine: price or rate series shorter than required horizon")

// ErrInvalidParameters is spec.md's INVALID_PARAMETERS error kind: a bound
// violation in Parameters (h_out < h_in, negative insurance cost,
// reinvest fraction < 0, S0 <= 0, ...).
var ErrInvalidParameters = errors.New("engine: invalid parameters")
