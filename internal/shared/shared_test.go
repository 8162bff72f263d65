package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Info("hello")
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output, got %q", buf.String())
		}
	})

	t.Run("WithLogger attaches key-value pairs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "catalog")

		logger.Info("hello")
		if !strings.Contains(buf.String(), "component=catalog") {
			t.Errorf("expected the component key, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters lower levels", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)

		logger.Info("quiet")
		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
		logger.Warn("loud")
		if !strings.Contains(buf.String(), "loud") {
			t.Errorf("expected warn output, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if len(first) != 36 {
		t.Errorf("expected a uuid string, got %q", first)
	}
	if first == second {
		t.Error("expected distinct ids")
	}
}
