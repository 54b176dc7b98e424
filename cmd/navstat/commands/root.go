package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	runFile   string
	output    string
	save      bool
	verbose   bool
	beginDate string
	endDate   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "navstat",
	Short: "Fund NAV performance, drawdown and factor attribution",
	Long: `navstat analyses fund net-asset-value series.

Inputs are CSV files: NAV files with a date and a cumulative NAV column
(日期/净值日期/date, 累计净值/累计单位净值/nav), index files with
symbol,bob,close rows, and wide factor price files.

Usage:
  go run ./cmd/navstat [command]

Examples:
  go run ./cmd/navstat analyze fund.csv
  go run ./cmd/navstat analyze fund.csv --index index_data.csv --benchmark SHSE.000905
  go run ./cmd/navstat compare a.csv b.csv --index index_data.csv
  go run ./cmd/navstat attribution fund.csv --factors factors.csv --window 60
  go run ./cmd/navstat batch ./navs --index index_data.csv --output json
  go run ./cmd/navstat config hash run.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&runFile, "run", "", "analysis run file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&save, "save", false, "also write the report to NAV_OUTPUT_DIR")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&beginDate, "begin", "", "first date to analyse (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&endDate, "end", "", "last date to analyse (YYYY-MM-DD)")
}
