package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.toml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if cfg != Default() {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "rewind.toml", `
[history]
max_frames = 50
auto_save = true

[logging]
level = "debug"
format = "json"

[metrics]
addr = ":9100"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.MaxFrames != 50 || !cfg.History.AutoSave {
		t.Errorf("history = %+v", cfg.History)
	}
	if !cfg.History.Record {
		t.Error("record default lost")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
	if cfg.Script.TimeoutMS != 5000 {
		t.Errorf("script timeout default lost: %d", cfg.Script.TimeoutMS)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "rewind.yaml", `
history:
  max_frames: 7
  record: false
script:
  timeout_ms: 250
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.MaxFrames != 7 || cfg.History.Record {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Script.TimeoutMS != 250 {
		t.Errorf("timeout = %d", cfg.Script.TimeoutMS)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "rewind.toml", `
[history]
max_frames = 50
`)
	t.Setenv("REWIND_HISTORY_MAX_FRAMES", "3")
	t.Setenv("REWIND_LOG_LEVEL", "warn")
	t.Setenv("REWIND_METRICS_ADDR", "127.0.0.1:0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.MaxFrames != 3 {
		t.Errorf("max frames = %d, want env value 3", cfg.History.MaxFrames)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Addr != "127.0.0.1:0" {
		t.Errorf("addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		path := writeFile(t, "bad.toml", "[history\nmax_frames = ")
		_, err := Load(path)
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Path != path {
			t.Fatalf("err = %v, want ParseError for %s", err, path)
		}
		if pe.Line == 0 {
			t.Errorf("ParseError has no position: %v", pe)
		}
	})

	t.Run("format", func(t *testing.T) {
		path := writeFile(t, "rewind.ini", "x=1")
		if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("err = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, "rewind.yml", "history:\n  max_frames: -1\nlogging:\n  level: loud\n")
		_, err := Load(path)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("err = %v, want ErrInvalid", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "history.max_frames") || !strings.Contains(msg, "loud") {
			t.Errorf("error should report every problem: %s", msg)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("err = %v, want *ValidationError", err)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("REWIND_HISTORY_MAX_FRAMES", "many")
		if _, err := Load(""); err == nil {
			t.Error("expected env parse error")
		}
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "frames", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record passed a warn logger")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"frames":3`) {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := NewLogger(LoggingConfig{Level: "info", Format: "xml"}, &buf); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}
