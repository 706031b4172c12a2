package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"mercari/internal/config"
)

const logLevelEnvKey = "MERCARI_LOG_LEVEL"

var logLevelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// configureLoggerForCLI installs the default slog logger. The first non-empty
// of --log-level, MERCARI_LOG_LEVEL and log_level wins. A bad flag is an
// error; a bad env or config value falls back to the default with a warning.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	sources := []struct {
		name  string
		value string
	}{
		{name: "--log-level", value: flagLevel},
		{name: logLevelEnvKey, value: os.Getenv(logLevelEnvKey)},
		{name: "log_level", value: configLevel},
	}

	level := slog.LevelInfo
	warning := ""
	for i, src := range sources {
		if strings.TrimSpace(src.value) == "" {
			continue
		}
		parsed, err := parseLogLevel(src.value)
		if err != nil {
			if i == 0 {
				return "", fmt.Errorf("invalid --log-level %q", src.value)
			}
			warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", src.name, src.value, config.DefaultLogLevel)
			break
		}
		level = parsed
		break
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return warning, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return slog.LevelInfo, nil
	}
	if level, ok := logLevelNames[value]; ok {
		return level, nil
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
}
