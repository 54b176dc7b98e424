package commands

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Euclid-Jie/nav-analysis/internal/analysis"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyse every NAV file under a directory",
	Long: `Walks the directory for *.csv NAV files (the index file is skipped) and
analyses each one. Files that fail are listed at the end; they do not stop
the batch.

Example:
  go run ./cmd/navstat batch ./navs
  go run ./cmd/navstat batch ./navs --index ./navs/index_data.csv --benchmark SHSE.000905 --save`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&indexPath, "index", "", "index file (symbol,bob,close)")
	batchCmd.Flags().StringVar(&benchmarkFlag, "benchmark", "", "benchmark symbol, e.g. SHSE.000300")
}

func runBatch(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	if benchmarkFlag != "" {
		d.run.Benchmark = benchmarkFlag
	}

	paths, err := navFiles(args[0], indexPath)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no NAV files under %s", args[0])
	}

	_, bench, err := loadBenchmark(indexPath, d.run)
	if err != nil {
		return err
	}

	res, err := analysis.NewAnalyzer(d.log).Batch(cmd.Context(), d.run, paths, bench)
	if err != nil {
		return err
	}

	name := d.run.Name
	if name == "" {
		name = "batch_" + filepath.Base(args[0])
	}
	return render(cmd, d, name, res, func(w io.Writer) { printBatch(w, res) })
}

// navFiles lists *.csv files under root, sorted, excluding the index file.
func navFiles(root, index string) ([]string, error) {
	skip := ""
	if index != "" {
		skip = filepath.Clean(index)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		if filepath.Clean(path) == skip {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

func printBatch(w io.Writer, r *analysis.BatchResult) {
	PrintHeader(w, "NAV Batch", fmt.Sprintf("%d analysed, %d failed", len(r.Rows), len(r.Failures)))

	columns := append([]string{}, headlineColumns...)
	columns = append(columns, "Week", "YTD")
	widths := append([]int{}, headlineWidths...)
	widths = append(widths, 8, 8)

	PrintTableHeader(w, columns, widths)
	for _, row := range r.Rows {
		values := headlineRow(row.Headline)
		values = append(values, pct(row.WeekReturn), pct(row.YearToDate))
		PrintTableRow(w, values, widths)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w)
		for _, f := range r.Failures {
			PrintError(w, fmt.Sprintf("%s: %s", f.Name, f.Error))
		}
	}
}
