package drawdown

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptySeries    = errors.New("empty nav series")
	ErrLengthMismatch = errors.New("nav and date lengths differ")
)

// Episode is one contiguous underwater period.
//
// Start is the last date before the drawdown turned negative (the peak).
// When the series ends still underwater Recovered is false, End is the zero
// time and DaysToRecovery is -1.
type Episode struct {
	Start          time.Time `json:"start" yaml:"start"`
	Trough         time.Time `json:"trough" yaml:"trough"`
	MaxDrawdown    float64   `json:"max_drawdown" yaml:"max_drawdown"` // ≤ 0
	End            time.Time `json:"end,omitempty" yaml:"end,omitempty"`
	Recovered      bool      `json:"recovered" yaml:"recovered"`
	DaysToTrough   int       `json:"days_to_trough" yaml:"days_to_trough"`
	DaysToRecovery int       `json:"days_to_recovery" yaml:"days_to_recovery"`

	// index positions in the input arrays
	StartIdx  int `json:"-" yaml:"-"`
	TroughIdx int `json:"-" yaml:"-"`
	EndIdx    int `json:"-" yaml:"-"` // -1 when not recovered
}

// Curve returns the relative drawdown from the running peak:
//
//	drawdown[t] = (nav[t] - max(nav[0..t])) / max(nav[0..t])
//
// Every value is ≤ 0 and exactly 0 at a new high.
func Curve(nav []float64) []float64 {
	out := make([]float64, len(nav))
	peak := math.Inf(-1)
	for i, v := range nav {
		if v > peak {
			peak = v
		}
		out[i] = (v - peak) / peak
	}
	return out
}

// Segment computes the drawdown curve of nav and splits it into disjoint
// episodes. A series that never goes underwater yields an empty (non-nil)
// episode list.
func Segment(nav []float64, dates []time.Time) ([]float64, []Episode, error) {
	if err := checkInputs(nav, dates); err != nil {
		return nil, nil, err
	}

	dd := Curve(nav)
	episodes := make([]Episode, 0)

	var (
		open bool
		cur  Episode
	)
	for idx, v := range dd {
		switch {
		case v < 0 && !open:
			// idx ≥ 1: dd[0] is always 0
			open = true
			cur = Episode{
				Start:       dates[idx-1],
				StartIdx:    idx - 1,
				Trough:      dates[idx],
				TroughIdx:   idx,
				MaxDrawdown: v,
			}
		case v < 0 && open:
			if v < cur.MaxDrawdown {
				cur.MaxDrawdown = v
				cur.Trough = dates[idx]
				cur.TroughIdx = idx
			}
		case v >= 0 && open:
			open = false
			episodes = append(episodes, closeEpisode(cur, dates[idx], idx))
		}
	}

	if open {
		cur.EndIdx = -1
		cur.DaysToRecovery = -1
		cur.DaysToTrough = days(cur.Start, cur.Trough)
		episodes = append(episodes, cur)
	}

	return dd, episodes, nil
}

// Deepest returns the episode with the most negative drawdown (the first one
// on ties). ok is false when there are no episodes.
func Deepest(episodes []Episode) (Episode, bool) {
	if len(episodes) == 0 {
		return Episode{}, false
	}
	best := episodes[0]
	for _, e := range episodes[1:] {
		if e.MaxDrawdown < best.MaxDrawdown {
			best = e
		}
	}
	return best, true
}

func closeEpisode(e Episode, end time.Time, idx int) Episode {
	e.End = end
	e.EndIdx = idx
	e.Recovered = true
	e.DaysToTrough = days(e.Start, e.Trough)
	e.DaysToRecovery = days(e.Trough, end)
	return e
}

// days counts calendar days between two dates.
func days(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func checkInputs(nav []float64, dates []time.Time) error {
	if len(nav) == 0 {
		return ErrEmptySeries
	}
	if len(nav) != len(dates) {
		return fmt.Errorf("%d nav points, %d dates: %w", len(nav), len(dates), ErrLengthMismatch)
	}
	return nil
}
