package main

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"-4":      slog.LevelDebug,
	}
	for raw, want := range cases {
		got, err := parseLogLevel(raw)
		if err != nil {
			t.Fatalf("parseLogLevel(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}

	if _, err := parseLogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestConfigureLoggerForCLI(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	tests := []struct {
		name        string
		flag        string
		env         string
		config      string
		wantErr     bool
		wantWarning string
		enabled     slog.Level
		disabled    []slog.Level
	}{
		{name: "flag beats env and config", flag: "debug", env: "error", config: "warn", enabled: slog.LevelDebug},
		{name: "flag beats invalid env", flag: "error", env: "verbose", enabled: slog.LevelError, disabled: []slog.Level{slog.LevelWarn}},
		{name: "env beats config", env: "warn", config: "debug", enabled: slog.LevelWarn, disabled: []slog.Level{slog.LevelInfo}},
		{name: "config used last", config: "error", enabled: slog.LevelError, disabled: []slog.Level{slog.LevelWarn}},
		{name: "default is info", enabled: slog.LevelInfo, disabled: []slog.Level{slog.LevelDebug}},
		{name: "invalid flag", flag: "verbose", wantErr: true},
		{name: "invalid env warns", env: "verbose", config: "error", wantWarning: "invalid MERCARI_LOG_LEVEL", enabled: slog.LevelInfo, disabled: []slog.Level{slog.LevelDebug}},
		{name: "invalid config warns", config: "verbose", wantWarning: "invalid log_level", enabled: slog.LevelInfo, disabled: []slog.Level{slog.LevelDebug}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(logLevelEnvKey, tt.env)

			warning, err := configureLoggerForCLI(tt.flag, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("configure logger: %v", err)
			}
			if tt.wantWarning == "" && warning != "" {
				t.Fatalf("unexpected warning %q", warning)
			}
			if tt.wantWarning != "" {
				if !strings.Contains(warning, tt.wantWarning) || !strings.Contains(warning, "defaulting to info") {
					t.Fatalf("expected warning containing %q, got %q", tt.wantWarning, warning)
				}
			}

			ctx := context.Background()
			if !slog.Default().Enabled(ctx, tt.enabled) {
				t.Fatalf("expected %v to be enabled", tt.enabled)
			}
			for _, level := range tt.disabled {
				if slog.Default().Enabled(ctx, level) {
					t.Fatalf("expected %v to be disabled", level)
				}
			}
		})
	}
}
