package consumption

import "errors"

var (
	// ErrInvalidGrain is returned when the bucket grain is unsupported.
	ErrInvalidGrain = errors.New("consumption: invalid grain")
	// ErrInvalidResetThreshold is returned when a counter sensor has a
	// non-positive reset threshold.
	ErrInvalidResetThreshold = errors.New("consumption: invalid reset threshold")
	// ErrWrongSensorKind is returned when a sequence is handed to the wrong
	// extraction rule, e.g. instantaneous power to the delta extractor.
	ErrWrongSensorKind = errors.New("consumption: wrong sensor kind for delta extraction")
)
