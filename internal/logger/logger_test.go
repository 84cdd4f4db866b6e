package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/internal/config"
)

// readEntries decodes a JSON log file into one map per line.
func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("triangle 10/200")
	log.Info("mesh converted", zap.String("mesh", "body"))
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "triangle") {
		t.Errorf("debug entry written at info level: %q", out)
	}
	if !strings.Contains(out, "INFO mesh converted") {
		t.Errorf("expected plain level and message, got %q", out)
	}
	if !strings.Contains(out, `"mesh": "body"`) {
		t.Errorf("expected mesh field, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("buffer output should not be colored: %q", out)
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		logged  []string
		dropped []string
		wantErr bool
	}{
		{level: "", logged: []string{"info", "warn"}, dropped: []string{"debug"}},
		{level: "debug", logged: []string{"debug", "info", "warn", "error"}},
		{level: "warn", logged: []string{"warn", "error"}, dropped: []string{"debug", "info"}},
		{level: "error", logged: []string{"error"}, dropped: []string{"info", "warn"}},
		{level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := New(Options{Level: tt.level, Console: &buf})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown level")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			log.Debug("debug entry")
			log.Info("info entry")
			log.Warn("warn entry")
			log.Error("error entry")

			out := buf.String()
			for _, l := range tt.logged {
				if !strings.Contains(out, l+" entry") {
					t.Errorf("expected %s entry", l)
				}
			}
			for _, l := range tt.dropped {
				if strings.Contains(out, l+" entry") {
					t.Errorf("unexpected %s entry at level %q", l, tt.level)
				}
			}
		})
	}
}

func TestNewFileOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "srconv.log")
	log, err := New(Options{Level: "info", File: logFile})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Warn("no shader for material", zap.String("material", "skin"))
	_ = log.Sync()

	entries := readEntries(t, logFile)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["level"] != "warn" || e["msg"] != "no shader for material" || e["material"] != "skin" {
		t.Errorf("unexpected entry %v", e)
	}
	if _, ok := e["caller"]; !ok {
		t.Error("expected caller in file entries")
	}
}

func TestNewNoOutputs(t *testing.T) {
	log, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zap.ErrorLevel) {
		t.Error("logger without outputs should discard everything")
	}
}

func TestForSession(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "session.log")
	if err := InitFromConfig(config.LoggingConfig{Level: "info", LogFile: logFile}); err != nil {
		t.Fatalf("InitFromConfig: %v", err)
	}

	ForSession("3f2a").Info("rule crunched", zap.String("rule", "body.rule"))
	Sync()

	entries := readEntries(t, logFile)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["session"] != "3f2a" || entries[0]["rule"] != "body.rule" {
		t.Errorf("unexpected entry %v", entries[0])
	}
}

func TestInitFromConfig(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "config.log")
	if err := InitFromConfig(config.LoggingConfig{Level: "warn", LogFile: logFile}); err != nil {
		t.Fatalf("InitFromConfig: %v", err)
	}

	Info("converting mesh", zap.Int("mesh", 1))
	Warn("cruncher reported warnings", zap.Int("code", 4))
	Error("mesh failed")
	Sync()

	entries := readEntries(t, logFile)
	if len(entries) != 2 {
		t.Fatalf("expected warn and error entries, got %v", entries)
	}
	if entries[0]["msg"] != "cruncher reported warnings" || entries[0]["code"] != float64(4) {
		t.Errorf("unexpected warn entry %v", entries[0])
	}
	if entries[1]["level"] != "error" {
		t.Errorf("unexpected error entry %v", entries[1])
	}
}

func TestInitFromConfigBadLevel(t *testing.T) {
	prev := Log
	if err := InitFromConfig(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if Log != prev {
		t.Error("failed init should keep the previous logger")
	}
}
