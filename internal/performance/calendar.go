package performance

import (
	"sort"
	"time"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

// YearRow is one row of the monthly return table.
type YearRow struct {
	Year int `json:"year" yaml:"year"`
	// Months maps month number (1-12) to the compounded return of that
	// month. Months without observations are absent.
	Months   map[int]float64 `json:"months" yaml:"months"`
	WinRatio float64         `json:"win_ratio" yaml:"win_ratio"`
}

// MonthlyReturns compounds simple returns per calendar month and pivots them
// by year. WinRatio is the share of observed months with a return ≥ 0.
// Values are rounded to 4 decimals. A non-zero start drops earlier NAV
// points before returns are taken.
func MonthlyReturns(s *navseries.Series, start time.Time) ([]YearRow, error) {
	if !start.IsZero() {
		var err error
		if s, err = s.Between(start, time.Time{}); err != nil {
			return nil, err
		}
	}

	dates := s.Dates()
	values := s.Values()

	type key struct{ year, month int }
	growth := map[key]float64{}
	var order []key

	// The month of the first observation starts with no return yet.
	first := key{dates[0].Year(), int(dates[0].Month())}
	growth[first] = 1
	order = append(order, first)

	for i := 1; i < len(values); i++ {
		k := key{dates[i].Year(), int(dates[i].Month())}
		if _, ok := growth[k]; !ok {
			growth[k] = 1
			order = append(order, k)
		}
		growth[k] *= values[i] / values[i-1]
	}

	rows := map[int]*YearRow{}
	var years []int
	for _, k := range order {
		row, ok := rows[k.year]
		if !ok {
			row = &YearRow{Year: k.year, Months: map[int]float64{}}
			rows[k.year] = row
			years = append(years, k.year)
		}
		row.Months[k.month] = Round(growth[k]-1, 4)
	}

	sort.Ints(years)
	out := make([]YearRow, 0, len(years))
	for _, y := range years {
		row := rows[y]
		wins := 0
		for _, r := range row.Months {
			if r >= 0 {
				wins++
			}
		}
		row.WinRatio = Round(float64(wins)/float64(len(row.Months)), 4)
		out = append(out, *row)
	}
	return out, nil
}

// WeeklyReturn is the compounded simple return of one calendar week.
type WeeklyReturn struct {
	// Label is the Friday of the week (week ends on Sunday).
	Label  time.Time `json:"label" yaml:"label"`
	Return float64   `json:"return" yaml:"return"`
}

// WeeklyReturns compounds simple returns per week (weeks end on Sunday),
// labels each week by its Friday, drops labels after the last observation
// and keeps the last tail weeks (tail <= 0 keeps all). Values are rounded to
// 4 decimals.
func WeeklyReturns(s *navseries.Series, tail int) []WeeklyReturn {
	dates := s.Dates()
	values := s.Values()

	var out []WeeklyReturn
	growth := 1.0
	current := weekEnd(dates[0])

	flush := func() {
		label := current.AddDate(0, 0, -2)
		if !label.After(dates[len(dates)-1]) {
			out = append(out, WeeklyReturn{Label: label, Return: Round(growth-1, 4)})
		}
	}

	for i := 1; i < len(values); i++ {
		end := weekEnd(dates[i])
		if !end.Equal(current) {
			flush()
			growth = 1
			current = end
		}
		growth *= values[i] / values[i-1]
	}
	flush()

	if tail > 0 && len(out) > tail {
		out = out[len(out)-tail:]
	}
	return out
}

// weekEnd returns the Sunday closing the week of d.
func weekEnd(d time.Time) time.Time {
	offset := (7 - int(d.Weekday())) % 7
	y, m, dd := d.AddDate(0, 0, offset).Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, d.Location())
}

// YearlyReturns compounds simple returns per calendar year, rounded to 4
// decimals. The first year starts at the first observation.
func YearlyReturns(s *navseries.Series) map[int]float64 {
	dates := s.Dates()
	values := s.Values()

	growth := map[int]float64{dates[0].Year(): 1}
	for i := 1; i < len(values); i++ {
		y := dates[i].Year()
		if _, ok := growth[y]; !ok {
			growth[y] = 1
		}
		growth[y] *= values[i] / values[i-1]
	}

	out := make(map[int]float64, len(growth))
	for y, g := range growth {
		out[y] = Round(g-1, 4)
	}
	return out
}

// TrailingReturn is the simple return from the last observation on or
// before since to the last observation. When nothing precedes since the
// first observation is the base.
func TrailingReturn(s *navseries.Series, since time.Time) float64 {
	dates := s.Dates()
	values := s.Values()

	base := values[0]
	for i, d := range dates {
		if d.After(since) {
			break
		}
		base = values[i]
	}
	return values[len(values)-1]/base - 1
}
