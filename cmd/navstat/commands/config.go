package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect analysis run files",
	Long: `Commands:
  validate   check a run file and print its warnings
  hash       print the sha256 of a run file's resolved settings`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <run.yaml>",
	Short: "Validate a run file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

var configHashCmd = &cobra.Command{
	Use:   "hash <run.yaml>",
	Short: "Print the config hash of a run file",
	Long: `Two runs with the same hash analyse with the same settings. Defaults from
the environment are applied before hashing.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigHash,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configHashCmd)
}

func loadRun(path string) (*analysisconfig.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	run, _, err := analysisconfig.Load(path, analysisconfig.FromEnv(cfg))
	if err != nil {
		return nil, err
	}
	return run, nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	run, err := loadRun(args[0])
	if err != nil {
		PrintError(w, err.Error())
		return err
	}

	PrintSuccess(w, args[0]+" is valid")
	for _, warn := range analysisconfig.Warn(run) {
		PrintWarning(w, fmt.Sprintf("[%s] %s", warn.Code, warn.Message))
	}
	return nil
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	hash, err := analysisconfig.Hash(run)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
