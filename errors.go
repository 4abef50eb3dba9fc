package qsplit

import "errors"

// Grouping errors.
var (
	// ErrUnsupportedObservable is returned when an observable cannot be
	// decomposed into per-wire Pauli or identity factors.
	ErrUnsupportedObservable = errors.New("observable is not a Pauli word")

	// ErrOverlappingWires is returned when a tensor product is built from
	// factors that act on the same wire.
	ErrOverlappingWires = errors.New("tensor factors act on overlapping wires")

	// ErrInvalidObservable is returned when observable text cannot be parsed.
	ErrInvalidObservable = errors.New("invalid observable")

	// ErrUnknownMeasurementKind is returned for a measurement kind other than
	// expval, var or sample.
	ErrUnknownMeasurementKind = errors.New("unknown measurement kind")

	// ErrUnknownRelation is returned when a commutation relation name is not recognised.
	ErrUnknownRelation = errors.New("unknown commutation relation")
)

// Recombination errors.
var (
	// ErrMismatchedResultCount is returned when the number of result bundles
	// does not match the number of groups in the partition.
	ErrMismatchedResultCount = errors.New("result count does not match group count")

	// ErrMalformedResult is returned when a result bundle does not hold one
	// entry per measurement of its group.
	ErrMalformedResult = errors.New("malformed group result")
)

// Execution errors.
var (
	ErrCircuitOpen       = errors.New("circuit breaker is open")
	ErrSchedulingTimeout = errors.New("job scheduling timeout")
	ErrNoDevice          = errors.New("no device configured")
)
