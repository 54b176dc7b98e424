package analysisconfig

import (
	"fmt"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

// ValidationError is a fatal configuration problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a suspicious but usable setting.
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
func Validate(cfg *Config) error {
	// === Period ===
	begin, err := parseDate(cfg.Begin)
	if err != nil {
		return ValidationError{"begin", "must be YYYY-MM-DD"}
	}
	end, err := parseDate(cfg.End)
	if err != nil {
		return ValidationError{"end", "must be YYYY-MM-DD"}
	}
	if !begin.IsZero() && !end.IsZero() && !begin.Before(end) {
		return ValidationError{"begin", "must be before end"}
	}
	if _, err := parseDate(cfg.WinRatioStart); err != nil {
		return ValidationError{"win_ratio_start", "must be YYYY-MM-DD"}
	}

	// === Returns ===
	if _, err := navseries.ParseReturnType(cfg.ReturnType); err != nil {
		return ValidationError{"return_type", "must be log or simple"}
	}
	if cfg.PeriodsPerYear < 0 {
		return ValidationError{"periods_per_year", "must be >= 0"}
	}

	// === Windows ===
	if cfg.RollingWindow < 2 {
		return ValidationError{"rolling_window", "must be > 1"}
	}
	if cfg.AttribWindow < 2 {
		return ValidationError{"attribution_window", "must be > 1"}
	}
	if cfg.CondThreshold <= 0 {
		return ValidationError{"cond_threshold", "must be > 0"}
	}
	if cfg.WeeklyTail < 0 {
		return ValidationError{"weekly_tail", "must be >= 0"}
	}

	// === Tail risk ===
	for _, c := range cfg.VaRConfidence {
		if !(c > 0 && c < 1) {
			return ValidationError{"var_confidence", fmt.Sprintf("%v must be in (0, 1)", c)}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal).
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Benchmark != "" {
		if _, ok := KnownBenchmarks[cfg.Benchmark]; !ok {
			warnings = append(warnings, Warning{
				Code:    "UNKNOWN_BENCHMARK",
				Message: fmt.Sprintf("benchmark %s is not a known index symbol", cfg.Benchmark),
			})
		}
	}

	// Few observations per regression make betas noisy.
	if cfg.AttribWindow < 20 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_ATTRIBUTION_WINDOW",
			Message: fmt.Sprintf("attribution_window=%d < 20: betas will be noisy", cfg.AttribWindow),
		})
	}

	if cfg.ReturnType == string(navseries.ReturnSimple) {
		warnings = append(warnings, Warning{
			Code:    "SIMPLE_RETURNS",
			Message: "simple returns do not add up across periods; drawdown from returns is approximate",
		})
	}

	return warnings
}
