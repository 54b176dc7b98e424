package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Euclid-Jie/nav-analysis/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "warn level",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "json"},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name:      "error level",
			cfg:       &config.Config{Env: "production", LogLevel: "error", LogFormat: "console"},
			wantLevel: zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}

	NewWithWriter(cfg, &buf).
		WithSeries("fund_a").
		WithFields(map[string]interface{}{"window": 60}).
		Warn("ill-conditioned design")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}

	if entry["level"] != "warn" {
		t.Errorf("Expected level warn, got %v", entry["level"])
	}
	if entry["series"] != "fund_a" {
		t.Errorf("Expected series fund_a, got %v", entry["series"])
	}
	if entry["window"] != float64(60) {
		t.Errorf("Expected window 60, got %v", entry["window"])
	}
	if entry["env"] != "development" {
		t.Errorf("Expected env development, got %v", entry["env"])
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}

	NewWithWriter(cfg, &buf).Infof("analysed %d points", 42)

	if !strings.Contains(buf.String(), "analysed 42 points") {
		t.Errorf("Expected console output to contain message, got: %s", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.WithError(errors.New("window larger than series")).Error("analysis failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}

	if entry["error"] != "window larger than series" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["message"] != "analysis failed" {
		t.Errorf("Expected message 'analysis failed', got %v", entry["message"])
	}
}

func TestNop(t *testing.T) {
	// Must not panic.
	Nop().WithField("k", "v").Warn("discarded")
}
