package logging_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/saadjs/nutri-cli/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"console", "json"} {
		logger, err := logging.New("warn", format)
		if err != nil {
			t.Fatalf("new %s logger: %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Fatalf("%s logger should not enable info at warn level", format)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Fatalf("%s logger should enable warn", format)
		}
	}
}
