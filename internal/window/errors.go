package window

import "errors"

var (
	// ErrWindowSize is returned when the window is not a positive size
	// (or not > 1 for the second-moment statistics).
	ErrWindowSize = errors.New("invalid window size")

	// ErrWindowTooLarge is returned when the window is longer than the series.
	ErrWindowTooLarge = errors.New("window larger than series")

	// ErrMinPeriods is returned when min_periods exceeds the window size.
	ErrMinPeriods = errors.New("min periods larger than window size")

	// ErrShapeMismatch is returned when paired inputs disagree in shape.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyInput is returned for inputs with no rows or columns.
	ErrEmptyInput = errors.New("empty input")
)
