package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Euclid-Jie/nav-analysis/internal/analysis"
	"github.com/Euclid-Jie/nav-analysis/internal/ingest"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

var compareCmd = &cobra.Command{
	Use:   "compare <nav.csv> [nav.csv...]",
	Short: "Compare several NAV series on one calendar",
	Long: `Forward-fills every NAV onto a common trading calendar (the index
file's bar dates, or the union of NAV dates without --index) from their
latest common start, then reports metrics and the deepest drawdown side
by side. With a benchmark each row is the excess path.

Example:
  go run ./cmd/navstat compare a.csv b.csv c.csv
  go run ./cmd/navstat compare a.csv b.csv --index index_data.csv --benchmark SHSE.000905`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&indexPath, "index", "", "index file (symbol,bob,close)")
	compareCmd.Flags().StringVar(&benchmarkFlag, "benchmark", "", "benchmark symbol, e.g. SHSE.000300")
}

func runCompare(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	if benchmarkFlag != "" {
		d.run.Benchmark = benchmarkFlag
	}

	navs := make([]*navseries.Series, 0, len(args))
	for _, path := range args {
		nav, err := ingest.ReadNAVFile(path)
		if err != nil {
			return fmt.Errorf("read nav: %w", err)
		}
		navs = append(navs, nav)
	}

	idx, bench, err := loadBenchmark(indexPath, d.run)
	if err != nil {
		return err
	}
	var calendar []time.Time
	if idx != nil {
		calendar = idx.Calendar()
	} else {
		calendar = unionDates(navs)
	}

	cmp, err := analysis.NewAnalyzer(d.log).Compare(cmd.Context(), d.run, calendar, navs, bench)
	if err != nil {
		return err
	}

	name := d.run.Name
	if name == "" {
		name = "compare"
	}
	return render(cmd, d, name, cmp, func(w io.Writer) { printComparison(w, cmp) })
}

// unionDates merges the dates of all series, ascending.
func unionDates(navs []*navseries.Series) []time.Time {
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, nav := range navs {
		for _, d := range nav.Dates() {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

var headlineColumns = []string{"Name", "Annual", "Vol", "Sharpe", "MaxDD", "DD begin", "DD trough", "Recovery"}
var headlineWidths = []int{24, 9, 9, 7, 9, 10, 10, 10}

func headlineRow(h analysis.Headline) []string {
	recovery := "-"
	if h.MaxDrawdown.Recovered {
		recovery = day(h.MaxDrawdown.Recovery)
	}
	return []string{
		h.Name,
		pct(h.Metrics.AnnualReturn),
		pct(h.Metrics.AnnualVol),
		fmt.Sprintf("%.3f", h.Metrics.Sharpe),
		pct(h.MaxDrawdown.MaxDrawdown),
		day(h.MaxDrawdown.Begin),
		day(h.MaxDrawdown.Trough),
		recovery,
	}
}

func printComparison(w io.Writer, c *analysis.Comparison) {
	PrintHeader(w, "NAV Comparison", fmt.Sprintf("%s ~ %s", day(c.Begin), day(c.End)))
	PrintTableHeader(w, headlineColumns, headlineWidths)
	for _, row := range c.Rows {
		PrintTableRow(w, headlineRow(row), headlineWidths)
	}
	if c.Benchmark != nil {
		PrintSeparator(w)
		PrintTableRow(w, headlineRow(*c.Benchmark), headlineWidths)
	}
}
