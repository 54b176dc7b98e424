package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Euclid-Jie/nav-analysis/internal/analysis"
	"github.com/Euclid-Jie/nav-analysis/internal/ingest"
)

var (
	indexPath     string
	benchmarkFlag string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <nav.csv>",
	Short: "Analyse one NAV series",
	Long: `Computes return metrics, drawdown episodes, the deepest drawdown,
monthly and weekly return tables and rolling volatility for one fund.

With --index and a benchmark symbol the report adds the benchmark, the
excess NAV (fund / benchmark) and the rolling correlation of returns.

Example:
  go run ./cmd/navstat analyze fund.csv
  go run ./cmd/navstat analyze fund.csv --index index_data.csv --benchmark SHSE.000300
  go run ./cmd/navstat analyze fund.csv --begin 2023-01-01 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&indexPath, "index", "", "index file (symbol,bob,close)")
	analyzeCmd.Flags().StringVar(&benchmarkFlag, "benchmark", "", "benchmark symbol, e.g. SHSE.000300")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	if benchmarkFlag != "" {
		d.run.Benchmark = benchmarkFlag
	}

	nav, err := ingest.ReadNAVFile(args[0])
	if err != nil {
		return fmt.Errorf("read nav: %w", err)
	}
	_, bench, err := loadBenchmark(indexPath, d.run)
	if err != nil {
		return err
	}
	if d.run.Name == "" {
		d.run.Name = nav.Name
	}

	report, err := analysis.NewAnalyzer(d.log).Single(cmd.Context(), d.run, nav, bench)
	if err != nil {
		return err
	}

	return render(cmd, d, d.run.Name, report, func(w io.Writer) { printReport(w, report) })
}

// render prints v in the requested format and optionally saves it.
func render(cmd *cobra.Command, d *deps, name string, v interface{}, text func(io.Writer)) error {
	w := cmd.OutOrStdout()
	if output == "text" {
		text(w)
	} else if err := emit(w, output, v); err != nil {
		return err
	}

	if save {
		path, err := saveReport(d.cfg.OutputDir, name, d.cfg.OutputFormat, v)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		PrintSuccess(cmd.ErrOrStderr(), "report written to "+path)
	}
	return nil
}

func printReport(w io.Writer, r *analysis.Report) {
	printSeries(w, "NAV Analysis", &r.Fund)
	if r.Benchmark != nil {
		printSeries(w, "Benchmark", r.Benchmark)
	}
	if r.Excess != nil {
		printSeries(w, "Excess (fund / benchmark)", r.Excess)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range r.Warnings {
			PrintWarning(w, fmt.Sprintf("[%s] %s", warn.Code, warn.Message))
		}
	}
	fmt.Fprintln(w)
	PrintKeyValue(w, "Config hash", r.ConfigHash, 14)
}

func printSeries(w io.Writer, title string, s *analysis.SeriesReport) {
	PrintHeader(w, fmt.Sprintf("%s: %s", title, s.Name),
		fmt.Sprintf("%s ~ %s (%d obs, %d/yr)", day(s.Begin), day(s.End), s.Observations, s.PeriodsPerYear))

	m := s.Metrics
	PrintKeyValue(w, "Total return", pct(m.TotalReturn), 14)
	PrintKeyValue(w, "Annual return", pct(m.AnnualReturn), 14)
	PrintKeyValue(w, "Annual vol", pct(m.AnnualVol), 14)
	PrintKeyValue(w, "Sharpe", fmt.Sprintf("%.4f", m.Sharpe), 14)
	PrintKeyValue(w, "Week return", pct(s.WeekReturn), 14)
	PrintKeyValue(w, "Year to date", pct(s.YearToDate), 14)

	dd := s.MaxDrawdown
	if dd.InDrawdown {
		PrintKeyValue(w, "Max drawdown", pct(dd.MaxDrawdown), 14)
		PrintKeyValue(w, "Begin/trough", fmt.Sprintf("%s / %s (%d days)", day(dd.Begin), day(dd.Trough), dd.Days), 14)
		if dd.Recovered {
			PrintKeyValue(w, "Recovered", fmt.Sprintf("%s (%d days)", day(dd.Recovery), dd.RecoveryDays), 14)
		} else {
			PrintKeyValue(w, "Recovered", "not yet", 14)
		}
	} else {
		PrintKeyValue(w, "Max drawdown", "none", 14)
	}
	PrintKeyValue(w, "Episodes", strconv.Itoa(len(s.Episodes)), 14)
	for _, v := range s.TailRisk {
		PrintKeyValue(w, fmt.Sprintf("VaR %s %.0f%%", v.Method, v.Confidence*100),
			fmt.Sprintf("%s (CVaR %s)", pct(v.VaR), pct(v.CVaR)), 14)
	}

	if len(s.Monthly) > 0 {
		fmt.Fprintln(w)
		columns := []string{"Year"}
		widths := []int{6}
		for m := 1; m <= 12; m++ {
			columns = append(columns, fmt.Sprintf("%dM", m))
			widths = append(widths, 7)
		}
		columns = append(columns, "Win")
		widths = append(widths, 7)

		PrintTableHeader(w, columns, widths)
		for _, row := range s.Monthly {
			values := []string{strconv.Itoa(row.Year)}
			for m := 1; m <= 12; m++ {
				if v, ok := row.Months[m]; ok {
					values = append(values, pct(v))
				} else {
					values = append(values, "")
				}
			}
			values = append(values, pct(row.WinRatio))
			PrintTableRow(w, values, widths)
		}
	}
}
