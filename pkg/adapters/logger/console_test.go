package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/vmemplay/pkg/ports"
)

func TestConsoleLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(ports.LevelWarn, &buf)

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line %d", 7)

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("messages below warn should be filtered, got %q", out)
	}
	if !strings.Contains(out, "warn line") {
		t.Errorf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "error line 7") {
		t.Errorf("expected formatted error line, got %q", out)
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(ports.LevelDebug, &buf).WithComponent("queue")

	l.Debug("slot %d ready", 2)

	if got := strings.TrimSpace(buf.String()); got != "[queue] slot 2 ready" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(ports.LevelQuiet, &buf)

	l.Error("should not appear")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}
