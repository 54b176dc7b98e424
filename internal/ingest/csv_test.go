package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05", utc(2024, 3, 5)},
		{"2024/03/05", utc(2024, 3, 5)},
		{"20240305", utc(2024, 3, 5)},
		{" 2024-03-05 15:00:00", utc(2024, 3, 5)},
		{"2024-03-05 00:00:00+08:00", utc(2024, 3, 5)},
		{"2024-03-05T00:00:00+08:00", utc(2024, 3, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseDate("March 5")
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestReadNAV_Aliases(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"chinese", "日期,单位净值,累计净值\n2024-01-03,1.0,1.2\n2024-01-02,1.0,1.1\n"},
		{"nav date", "净值日期,累计单位净值\n2024-01-02,1.1\n2024-01-03,1.2\n"},
		{"english with bom", "\ufeffdate,nav\n2024-01-02,1.1\n2024-01-03,1.2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadNAV(strings.NewReader(tt.csv), "fund")
			require.NoError(t, err)
			assert.Equal(t, "fund", s.Name)
			assert.Equal(t, []float64{1.1, 1.2}, s.Values())
			assert.Equal(t, []time.Time{utc(2024, 1, 2), utc(2024, 1, 3)}, s.Dates())
		})
	}
}

func TestReadNAV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr error
	}{
		{"no header", "", ErrMissingColumn},
		{"no nav column", "date,close\n2024-01-02,1\n", ErrMissingColumn},
		{"bad date", "date,nav\nyesterday,1\n", ErrBadDate},
		{"bad value", "date,nav\n2024-01-02,abc\n", ErrBadValue},
		{"duplicate", "date,nav\n2024-01-02,1\n2024-01-02,1.1\n", ErrDuplicateDate},
		{"non-positive", "date,nav\n2024-01-02,1\n2024-01-03,0\n", navseries.ErrNonPositive},
		{"empty", "date,nav\n", navseries.ErrEmptySeries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNAV(strings.NewReader(tt.csv), "fund")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadNAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alpha.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,nav\n2024-01-02,1\n2024-01-03,1.01\n"), 0o600))

	s, err := ReadNAVFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha", s.Name)
	assert.Equal(t, 2, s.Len())
}

const indexCSV = `symbol,bob,close
SHSE.000300,2024-01-02 00:00:00+08:00,3400
SHSE.000905,2024-01-02 00:00:00+08:00,5400
SHSE.000300,2024-01-03 00:00:00+08:00,3350
SHSE.000905,2024-01-04 00:00:00+08:00,5300
SHSE.000300,2024-01-04 00:00:00+08:00,3380
`

func TestReadIndex(t *testing.T) {
	idx, err := ReadIndex(strings.NewReader(indexCSV))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{utc(2024, 1, 2), utc(2024, 1, 3), utc(2024, 1, 4)}, idx.Calendar())
	assert.Equal(t, []string{"SHSE.000300", "SHSE.000905"}, idx.Symbols())

	hs300, err := idx.Series("SHSE.000300")
	require.NoError(t, err)
	assert.Equal(t, []float64{3400, 3350, 3380}, hs300.Values())

	zz500, err := idx.Series("SHSE.000905")
	require.NoError(t, err)
	assert.Equal(t, 2, zz500.Len())

	_, err = idx.Series("SZSE.399303")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = ReadIndex(strings.NewReader("bob,close\n2024-01-02,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadFactors(t *testing.T) {
	in := "date,market,size\n2024-01-02,100,\n2024-01-03,101,50\n2024-01-04,102,51\n"

	factors, err := ReadFactors(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, factors, 2)

	assert.Equal(t, "market", factors[0].Name)
	assert.Equal(t, []float64{100, 101, 102}, factors[0].Values())
	assert.Equal(t, "size", factors[1].Name)
	assert.Equal(t, utc(2024, 1, 3), factors[1].First())

	_, err = ReadFactors(strings.NewReader("date\n2024-01-02\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}
