package shared

import (
	"bytes"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name    string
		level   string
		want    log.Level
		wantErr bool
	}{
		{name: "empty defaults to info", level: "", want: log.InfoLevel},
		{name: "debug", level: "debug", want: log.DebugLevel},
		{name: "mixed case", level: "WaRn", want: log.WarnLevel},
		{name: "unknown", level: "verbose", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "session")
		logger.Info("refreshed")

		if !strings.Contains(buf.String(), "component=session") {
			t.Errorf("expected component field in %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "sesh.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("hello")
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateID() returned invalid uuid %q: %v", id, err)
	}
	if id == GenerateID() {
		t.Error("GenerateID() returned duplicate ids")
	}
}

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() { getRuntime, startCommand = origRuntime, origStart })

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser("http://localhost/login"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("linux uses xdg-open", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		var got *exec.Cmd
		startCommand = func(cmd *exec.Cmd) error { got = cmd; return nil }

		if err := OpenBrowser("http://localhost/login?reason=session_expired"); err != nil {
			t.Fatalf("OpenBrowser() error = %v", err)
		}
		if got == nil || got.Args[0] != "xdg-open" {
			t.Errorf("expected xdg-open command, got %+v", got)
		}
	})

	t.Run("rejects non-http targets", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCommand = func(*exec.Cmd) error { t.Fatal("must not launch"); return nil }

		for _, target := range []string{"/login", "file:///etc/passwd", "javascript:alert(1)"} {
			if err := OpenBrowser(target); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("OpenBrowser(%q) = %v, want ErrInvalidInput", target, err)
			}
		}
	})

	t.Run("windows passes the url to rundll32", func(t *testing.T) {
		getRuntime = func() string { return "windows" }
		var got *exec.Cmd
		startCommand = func(cmd *exec.Cmd) error { got = cmd; return nil }

		if err := OpenBrowser("https://app.test/login"); err != nil {
			t.Fatalf("OpenBrowser() error = %v", err)
		}
		if got == nil || got.Args[len(got.Args)-1] != "https://app.test/login" {
			t.Errorf("unexpected command %+v", got)
		}
	})

	t.Run("start failure is wrapped", func(t *testing.T) {
		getRuntime = func() string { return "darwin" }
		startCommand = func(*exec.Cmd) error { return errors.New("boom") }

		err := OpenBrowser("http://localhost")
		if err == nil || !strings.Contains(err.Error(), "failed to open browser") {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}
