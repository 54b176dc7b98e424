package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/internal/attribution"
	"github.com/Euclid-Jie/nav-analysis/internal/ingest"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/internal/regression"
)

var (
	factorsPath  string
	attribWindow int
	intercept    bool
)

var attributionCmd = &cobra.Command{
	Use:   "attribution <nav.csv>",
	Short: "Rolling factor attribution of a NAV series",
	Long: `Regresses the fund's log returns on factor log returns over a rolling
window and reports the exposures (betas), their t-values, R² and F per
window plus a per-factor summary.

Factors come from a wide price file (--factors: date column plus one
column per factor) and/or the benchmark index (--index --benchmark).
Factor prices are forward-filled onto the fund's dates.

Example:
  go run ./cmd/navstat attribution fund.csv --factors factors.csv
  go run ./cmd/navstat attribution fund.csv --index index_data.csv --benchmark SHSE.000300 --window 40 --intercept`,
	Args: cobra.ExactArgs(1),
	RunE: runAttribution,
}

func init() {
	rootCmd.AddCommand(attributionCmd)

	attributionCmd.Flags().StringVar(&factorsPath, "factors", "", "factor price file (date + one column per factor)")
	attributionCmd.Flags().StringVar(&indexPath, "index", "", "index file (symbol,bob,close)")
	attributionCmd.Flags().StringVar(&benchmarkFlag, "benchmark", "", "index symbol to use as a factor")
	attributionCmd.Flags().IntVar(&attribWindow, "window", 0, "rolling window (default from run config)")
	attributionCmd.Flags().BoolVar(&intercept, "intercept", false, "add an intercept to each regression")
}

func runAttribution(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	if benchmarkFlag != "" {
		d.run.Benchmark = benchmarkFlag
	}
	if attribWindow > 0 {
		d.run.AttribWindow = attribWindow
	}
	if intercept {
		d.run.Intercept = true
	}

	nav, err := ingest.ReadNAVFile(args[0])
	if err != nil {
		return fmt.Errorf("read nav: %w", err)
	}

	var prices []*navseries.Series
	if factorsPath != "" {
		if prices, err = ingest.ReadFactorsFile(factorsPath); err != nil {
			return fmt.Errorf("read factors: %w", err)
		}
	}
	_, bench, err := loadBenchmark(indexPath, d.run)
	if err != nil {
		return err
	}
	if bench != nil {
		prices = append(prices, bench.Rename(analysisconfig.BenchmarkName(bench.Name)))
	}
	if len(prices) == 0 {
		return fmt.Errorf("no factors: pass --factors and/or --index with --benchmark")
	}

	// Start once every factor has a price.
	begin, end := d.run.Period()
	for _, p := range prices {
		if p.First().After(begin) {
			begin = p.First()
		}
	}
	if nav, err = nav.Between(begin, end); err != nil {
		return err
	}

	dates := nav.Dates()
	factors := make([]attribution.Factor, 0, len(prices))
	for _, p := range prices {
		filled, err := p.FillForward(dates)
		if err != nil {
			return fmt.Errorf("factor %s: %w", p.Name, err)
		}
		f, err := attribution.FactorFromPrices(filled, dates, navseries.ReturnLog)
		if err != nil {
			return fmt.Errorf("factor %s: %w", p.Name, err)
		}
		factors = append(factors, f)
	}

	engine := regression.NewEngine(d.log, d.run.CondThreshold)
	res, err := attribution.NewAnalyzer(engine, d.log).Analyze(cmd.Context(), nav, factors, d.run.AttribWindow, d.run.Intercept)
	if err != nil {
		return err
	}

	return render(cmd, d, nav.Name+"_attribution", res, func(w io.Writer) { printAttribution(w, res) })
}

func printAttribution(w io.Writer, r *attribution.Result) {
	subtitle := fmt.Sprintf("window %d, %d regressions", r.Window, len(r.Rows))
	if len(r.Rows) > 0 {
		subtitle += fmt.Sprintf(", %s ~ %s", day(r.Rows[0].Date), day(r.Rows[len(r.Rows)-1].Date))
	}
	PrintHeader(w, "Factor Attribution: "+r.Name, subtitle)

	columns := []string{"Coefficient", "Mean β", "Std β", "Last β", "Mean t", "|t|>2"}
	widths := []int{16, 9, 9, 9, 9, 7}
	PrintTableHeader(w, columns, widths)
	for _, s := range r.Summary {
		PrintTableRow(w, []string{
			s.Name,
			number(s.MeanBeta, "%.4f"),
			number(s.StdBeta, "%.4f"),
			number(s.LastBeta, "%.4f"),
			number(s.MeanT, "%.2f"),
			pct(float64(s.Significant)),
		}, widths)
	}

	fmt.Fprintln(w)
	PrintKeyValue(w, "Mean R²", number(r.MeanR2, "%.4f"), 16)
	if r.IllConditioned > 0 {
		PrintWarning(w, fmt.Sprintf("%d of %d windows are ill-conditioned", r.IllConditioned, len(r.Rows)))
	}
}

func number(n attribution.Number, format string) string {
	if !n.Finite() {
		return "n/a"
	}
	return fmt.Sprintf(format, float64(n))
}
