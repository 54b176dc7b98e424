package commands

import (
	"fmt"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/internal/ingest"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/pkg/config"
	"github.com/Euclid-Jie/nav-analysis/pkg/logger"
)

// deps bundles what every analysis command needs.
type deps struct {
	cfg *config.Config
	log *logger.Logger
	run analysisconfig.Config
}

// initDeps loads process config, builds the logger and resolves the run
// config: env defaults, then the --run file, then command-line overrides.
func initDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if output != "text" {
		cfg.OutputFormat = output
	}

	log := logger.New(cfg)

	run := analysisconfig.FromEnv(cfg)
	if runFile != "" {
		loaded, _, err := analysisconfig.Load(runFile, run)
		if err != nil {
			return nil, fmt.Errorf("load run file %s: %w", runFile, err)
		}
		run = *loaded
	}
	if beginDate != "" {
		run.Begin = beginDate
	}
	if endDate != "" {
		run.End = endDate
	}

	if err := analysisconfig.Validate(&run); err != nil {
		return nil, fmt.Errorf("run config: %w", err)
	}
	for _, w := range analysisconfig.Warn(&run) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return &deps{cfg: cfg, log: log, run: run}, nil
}

// loadBenchmark reads the index file and picks the run's benchmark symbol.
// It returns nil when no benchmark is configured.
func loadBenchmark(indexPath string, run analysisconfig.Config) (*ingest.Index, *navseries.Series, error) {
	if indexPath == "" {
		if run.Benchmark != "" {
			return nil, nil, fmt.Errorf("benchmark %s needs --index", run.Benchmark)
		}
		return nil, nil, nil
	}

	idx, err := ingest.ReadIndexFile(indexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read index %s: %w", indexPath, err)
	}
	if run.Benchmark == "" {
		return idx, nil, nil
	}
	bench, err := idx.Series(run.Benchmark)
	if err != nil {
		return nil, nil, err
	}
	return idx, bench, nil
}
