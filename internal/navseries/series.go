package navseries

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptySeries     = errors.New("empty series")
	ErrLengthMismatch  = errors.New("dates and values differ in length")
	ErrNotIncreasing   = errors.New("dates must be strictly increasing")
	ErrNonPositive     = errors.New("nav values must be positive")
	ErrMissingDate     = errors.New("date missing from series")
	ErrUnknownReturn   = errors.New("unknown return type")
	ErrCalendarMissing = errors.New("calendar starts before the first observation")
)

// DateLayout is the canonical day format used across ingestion and reports.
const DateLayout = "2006-01-02"

// Series is a NAV path: one positive value per strictly increasing date.
// A Series is immutable once built; every transformation returns a copy.
type Series struct {
	Name   string
	dates  []time.Time
	values []float64
}

// New validates and builds a Series. Inputs are copied.
func New(name string, dates []time.Time, values []float64) (*Series, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySeries)
	}
	if len(dates) != len(values) {
		return nil, fmt.Errorf("%s: %d dates, %d values: %w", name, len(dates), len(values), ErrLengthMismatch)
	}

	for i, v := range values {
		if !(v > 0) {
			return nil, fmt.Errorf("%s: %v on %s: %w", name, v, dates[i].Format(DateLayout), ErrNonPositive)
		}
		if i > 0 && !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%s: %s after %s: %w", name,
				dates[i].Format(DateLayout), dates[i-1].Format(DateLayout), ErrNotIncreasing)
		}
	}

	s := &Series{
		Name:   name,
		dates:  make([]time.Time, len(dates)),
		values: make([]float64, len(values)),
	}
	copy(s.dates, dates)
	copy(s.values, values)
	return s, nil
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.values) }

// Dates returns a copy of the dates.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Values returns a copy of the values.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// First returns the first date.
func (s *Series) First() time.Time { return s.dates[0] }

// Last returns the last date.
func (s *Series) Last() time.Time { return s.dates[len(s.dates)-1] }

// Normalize rescales the series so its first value is 1.0.
func (s *Series) Normalize() *Series {
	base := s.values[0]
	out := &Series{
		Name:   s.Name,
		dates:  s.Dates(),
		values: make([]float64, len(s.values)),
	}
	for i, v := range s.values {
		out.values[i] = v / base
	}
	return out
}

// Between keeps observations with begin ≤ date ≤ end. A zero bound is open.
func (s *Series) Between(begin, end time.Time) (*Series, error) {
	var dates []time.Time
	var values []float64
	for i, d := range s.dates {
		if !begin.IsZero() && d.Before(begin) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		dates = append(dates, d)
		values = append(values, s.values[i])
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s between %s and %s: %w", s.Name,
			begin.Format(DateLayout), end.Format(DateLayout), ErrEmptySeries)
	}
	return &Series{Name: s.Name, dates: dates, values: values}, nil
}

// Rename returns a copy under a new name.
func (s *Series) Rename(name string) *Series {
	return &Series{Name: name, dates: s.Dates(), values: s.Values()}
}

// Align restricts s to the given dates. Every date must be present in s.
func (s *Series) Align(dates []time.Time) (*Series, error) {
	index := make(map[time.Time]int, len(s.dates))
	for i, d := range s.dates {
		index[d] = i
	}

	values := make([]float64, len(dates))
	for i, d := range dates {
		j, ok := index[d]
		if !ok {
			return nil, fmt.Errorf("%s: %s: %w", s.Name, d.Format(DateLayout), ErrMissingDate)
		}
		values[i] = s.values[j]
	}
	return New(s.Name, dates, values)
}

// FillForward re-indexes s onto a trading calendar, carrying the last known
// value over dates with no observation. The calendar must not start before
// the first observation.
func (s *Series) FillForward(calendar []time.Time) (*Series, error) {
	if len(calendar) == 0 {
		return nil, fmt.Errorf("%s: calendar: %w", s.Name, ErrEmptySeries)
	}
	if calendar[0].Before(s.dates[0]) {
		return nil, fmt.Errorf("%s: calendar %s, first observation %s: %w", s.Name,
			calendar[0].Format(DateLayout), s.dates[0].Format(DateLayout), ErrCalendarMissing)
	}

	values := make([]float64, len(calendar))
	j := 0
	for i, d := range calendar {
		for j+1 < len(s.dates) && !s.dates[j+1].After(d) {
			j++
		}
		values[i] = s.values[j]
	}
	return New(s.Name, calendar, values)
}

// Excess divides nav by bench date by date after normalizing both. The two
// series must share the same dates.
func Excess(nav, bench *Series) (*Series, error) {
	if nav.Len() != bench.Len() {
		return nil, fmt.Errorf("excess %s/%s: %w", nav.Name, bench.Name, ErrLengthMismatch)
	}
	for i := range nav.dates {
		if !nav.dates[i].Equal(bench.dates[i]) {
			return nil, fmt.Errorf("excess %s/%s: %s: %w", nav.Name, bench.Name,
				nav.dates[i].Format(DateLayout), ErrMissingDate)
		}
	}

	n := nav.Normalize()
	b := bench.Normalize()
	values := make([]float64, n.Len())
	for i := range values {
		values[i] = n.values[i] / b.values[i]
	}
	return &Series{Name: "excess_" + nav.Name, dates: n.dates, values: values}, nil
}
