package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "agenda loaded",
			fields:  Fields{"date": "2024-05-10"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "scroll step",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "upsert failed",
			err:     errors.New("constraint violation"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(LevelInfo, &buf)

			l.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > 0
			if logged != tt.want {
				t.Fatalf("log() logged = %v, want %v", logged, tt.want)
			}
			if !logged {
				return
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
			}
			if entry["message"] != tt.message {
				t.Errorf("message = %v, want %v", entry["message"], tt.message)
			}
			for k, v := range tt.fields {
				if entry[k] != v {
					t.Errorf("field %s = %v, want %v", k, entry[k], v)
				}
			}
			if tt.err != nil && entry["error"] != tt.err.Error() {
				t.Errorf("error = %v, want %v", entry["error"], tt.err.Error())
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(tt.minLevel, &buf).log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf).With(Fields{"run_id": "abc"})

	l.Info("started", nil)

	if !strings.Contains(buf.String(), `"run_id":"abc"`) {
		t.Errorf("child logger output %q missing run_id", buf.String())
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("fixtures.found")
	m.IncrCounter("fixtures.found")
	m.AddCounter("fixtures.found", 3)

	if got := m.Counter("fixtures.found"); got != 5 {
		t.Errorf("Counter = %v, want 5", got)
	}
	if got := m.Counter("missing"); got != 0 {
		t.Errorf("Counter(missing) = %v, want 0", got)
	}
}

func TestMetrics_Summary(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("upsert.ok")
	m.RecordTiming("page.load", 100*time.Millisecond)
	m.RecordTiming("page.load", 300*time.Millisecond)

	s := m.Summary()

	if s["upsert.ok"] != int64(1) {
		t.Errorf("upsert.ok = %v, want 1", s["upsert.ok"])
	}
	if s["page.load.count"] != 2 {
		t.Errorf("page.load.count = %v, want 2", s["page.load.count"])
	}
	if s["page.load.total"] != "400ms" {
		t.Errorf("page.load.total = %v, want 400ms", s["page.load.total"])
	}
	if s["page.load.max"] != "300ms" {
		t.Errorf("page.load.max = %v, want 300ms", s["page.load.max"])
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("debug", nil)
	Info("info", Fields{"key": "value"})
	Warn("warn", nil)
	Error("error", Fields{"component": "test"}, errors.New("boom"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("logged %d lines, want 4", got)
	}
}
