package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func resetForTest(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(func() {
		Reset()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	resetForTest(t)

	var first, second bytes.Buffer
	Init(Options{Service: "identity", Level: "info", Output: &first})
	Init(Options{Service: "other", Level: "debug", Output: &second})

	log := Get()
	log.Debug().Msg("hidden")
	log.Info().Str("user_id", "u1").Msg("visible")

	if second.Len() != 0 {
		t.Fatal("second Init must have no effect")
	}
	out := first.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, `"user_id":"u1"`) || !strings.Contains(out, `"service":"identity"`) {
		t.Fatalf("expected service and user_id fields in %q", out)
	}
}

func TestComponent_TagsLines(t *testing.T) {
	resetForTest(t)

	var buf bytes.Buffer
	Init(Options{Service: "identity", Output: &buf})
	l := Component("sessions")
	l.Info().Msg("login")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "identity" || line["component"] != "sessions" || line["message"] != "login" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestInit_OmitsEmptyService(t *testing.T) {
	resetForTest(t)

	var buf bytes.Buffer
	Init(Options{Output: &buf})
	l := Get()
	l.Info().Msg("hello")

	if strings.Contains(buf.String(), `"service"`) {
		t.Fatalf("unexpected service field in %q", buf.String())
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	resetForTest(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Get()
}
