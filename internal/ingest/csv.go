// Package ingest reads NAV, benchmark index and factor price files.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

var (
	ErrMissingColumn = errors.New("required column not found")
	ErrBadDate       = errors.New("unparseable date")
	ErrBadValue      = errors.New("unparseable value")
	ErrDuplicateDate = errors.New("duplicate date")
	ErrUnknownSymbol = errors.New("symbol not present in index file")
)

// Header aliases accepted for NAV files.
var (
	dateAliases = []string{"日期", "净值日期", "date"}
	navAliases  = []string{"累计净值", "累计单位净值", "nav"}
)

// Index file columns.
const (
	symbolColumn = "symbol"
	barColumn    = "bob" // bar open time
	closeColumn  = "close"
)

var dateLayouts = []string{
	navseries.DateLayout,
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// ParseDate accepts the date formats found in fund and index exports and
// returns midnight UTC of the wall-clock day. Zone offsets are dropped, not
// converted.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadDate)
}

// ReadNAVFile reads a NAV CSV; the series is named after the file stem.
func ReadNAVFile(path string) (*navseries.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadNAV(f, name)
}

// ReadNAV reads a date + cumulative NAV table. Rows are sorted by date;
// duplicate dates are rejected and so are non-positive values (by
// navseries.New).
func ReadNAV(r io.Reader, name string) (*navseries.Series, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	dateCol, err := column(header, dateAliases...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	navCol, err := column(header, navAliases...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	obs := make([]observation, 0, len(rows))
	for i, row := range rows {
		o, err := parseRow(row, dateCol, navCol)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", name, i+2, err)
		}
		obs = append(obs, o)
	}
	return build(name, obs)
}

// Index is a multi-symbol index file (symbol, bob, close).
type Index struct {
	calendar []time.Time
	bars     map[string][]observation
}

// ReadIndexFile reads an index CSV from disk.
func ReadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIndex(f)
}

// ReadIndex reads a symbol/bob/close table.
func ReadIndex(r io.Reader) (*Index, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	symCol, err := column(header, symbolColumn)
	if err != nil {
		return nil, err
	}
	barCol, err := column(header, barColumn)
	if err != nil {
		return nil, err
	}
	closeCol, err := column(header, closeColumn)
	if err != nil {
		return nil, err
	}

	idx := &Index{bars: map[string][]observation{}}
	seen := map[time.Time]bool{}
	for i, row := range rows {
		o, err := parseRow(row, barCol, closeCol)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		sym := strings.TrimSpace(row[symCol])
		idx.bars[sym] = append(idx.bars[sym], o)
		if !seen[o.date] {
			seen[o.date] = true
			idx.calendar = append(idx.calendar, o.date)
		}
	}
	sort.Slice(idx.calendar, func(i, j int) bool { return idx.calendar[i].Before(idx.calendar[j]) })
	return idx, nil
}

// Calendar returns every distinct bar date across all symbols, ascending.
// It serves as the trading calendar for forward-filling NAVs.
func (idx *Index) Calendar() []time.Time {
	out := make([]time.Time, len(idx.calendar))
	copy(out, idx.calendar)
	return out
}

// Symbols lists the symbols present, sorted.
func (idx *Index) Symbols() []string {
	out := make([]string, 0, len(idx.bars))
	for s := range idx.bars {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Series returns the close series of one symbol.
func (idx *Index) Series(symbol string) (*navseries.Series, error) {
	bars, ok := idx.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	return build(symbol, append([]observation(nil), bars...))
}

// ReadFactorsFile reads a factor price CSV from disk.
func ReadFactorsFile(path string) ([]*navseries.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFactors(f)
}

// ReadFactors reads a wide table: a date column (NAV aliases) followed by one
// price or index-level column per factor. Empty cells are skipped, so factors
// may start on different dates.
func ReadFactors(r io.Reader) ([]*navseries.Series, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	dateCol, err := column(header, dateAliases...)
	if err != nil {
		return nil, err
	}

	var out []*navseries.Series
	for c, name := range header {
		if c == dateCol {
			continue
		}
		name = strings.TrimSpace(name)
		var obs []observation
		for i, row := range rows {
			if strings.TrimSpace(row[c]) == "" {
				continue
			}
			o, err := parseRow(row, dateCol, c)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", name, i+2, err)
			}
			obs = append(obs, o)
		}
		s, err := build(name, obs)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("factor columns: %w", ErrMissingColumn)
	}
	return out, nil
}

// =============================================================================
// Internals
// =============================================================================

type observation struct {
	date  time.Time
	value float64
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("header: %w", ErrMissingColumn)
	}
	header := records[0]
	// Excel exports prefix the first header with a UTF-8 BOM.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	return header, records[1:], nil
}

func column(header []string, aliases ...string) (int, error) {
	for _, alias := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("one of %v: %w", aliases, ErrMissingColumn)
}

func parseRow(row []string, dateCol, valueCol int) (observation, error) {
	d, err := ParseDate(row[dateCol])
	if err != nil {
		return observation{}, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[valueCol]), 64)
	if err != nil {
		return observation{}, fmt.Errorf("%q: %w", row[valueCol], ErrBadValue)
	}
	return observation{date: d, value: v}, nil
}

func build(name string, obs []observation) (*navseries.Series, error) {
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })

	dates := make([]time.Time, len(obs))
	values := make([]float64, len(obs))
	for i, o := range obs {
		if i > 0 && o.date.Equal(obs[i-1].date) {
			return nil, fmt.Errorf("%s: %s: %w", name, o.date.Format(navseries.DateLayout), ErrDuplicateDate)
		}
		dates[i] = o.date
		values[i] = o.value
	}
	return navseries.New(name, dates, values)
}
