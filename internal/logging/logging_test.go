package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/voyago/farescout/internal/config"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := New(config.LoggingConfig{Level: level, Format: "text"})
		if err != nil {
			t.Fatalf("New(%s): %v", level, err)
		}
		want, _ := zapcore.ParseLevel(level)
		if !log.Core().Enabled(want) {
			t.Errorf("level %s should be enabled", level)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "info", Format: "json"}); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud", Format: "text"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LoggingConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
