package slogutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"
)

var linePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z `)

// body strips the timestamp from a single logged line.
func body(t *testing.T, out string) string {
	t.Helper()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected exactly one line, got %q", out)
	}
	loc := linePrefix.FindStringIndex(out)
	if loc == nil {
		t.Fatalf("line does not start with an RFC 3339 UTC timestamp: %q", out)
	}
	return strings.TrimSuffix(out[loc[1]:], "\n")
}

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("Listening", "addr", "127.0.0.1:5002", "max_connections", 64)

	want := "[info] Listening | addr=127.0.0.1:5002 max_connections=64"
	if got := body(t, buf.String()); got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestLineHandler_ConnectionPrefix(t *testing.T) {
	var buf bytes.Buffer
	conn := NewLogger(&buf, slog.LevelDebug).
		With(ConnKey, "1f2e3d4c-5b6a-4978-8a9b-0c1d2e3f4a5b", "remote", "127.0.0.1:40312")

	conn.Debug("State", "from", "awaiting-length", "to", "awaiting-payload", "length", 10)

	want := "[debug] <1f2e3d4c> State | remote=127.0.0.1:40312 from=awaiting-length to=awaiting-payload length=10"
	if got := body(t, buf.String()); got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestLineHandler_ConnectionPrefixFromRecord(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{
			name: "record attribute",
			log:  func(l *slog.Logger) { l.Info("Connection accepted", ConnKey, "c1") },
			want: "[info] <c1> Connection accepted",
		},
		{
			name: "first conn wins",
			log:  func(l *slog.Logger) { l.With(ConnKey, "c1").Info("Closed", ConnKey, "c2") },
			want: "[info] <c1> Closed | conn=c2",
		},
		{
			name: "grouped conn stays an attribute",
			log:  func(l *slog.Logger) { l.WithGroup("peer").Info("Dial", ConnKey, "c3") },
			want: "[info] Dial | peer.conn=c3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, slog.LevelInfo))
			if got := body(t, buf.String()); got != tt.want {
				t.Errorf("line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_Values(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"plain string", "PARSE_ERROR", "v=PARSE_ERROR"},
		{"spaces are quoted", stderrors.New("length line not terminated"), `v="length line not terminated"`},
		{"empty is quoted", "", `v=""`},
		{"equals is quoted", "a=b", `v="a=b"`},
		{"pipe is quoted", "a|b", `v="a|b"`},
		{"newline is escaped", "x\ny", `v="x\ny"`},
		{"duration", 1500 * time.Millisecond, "v=1.5s"},
		{"time in UTC", time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)), "v=2026-01-02T02:04:05Z"},
		{"integer", int64(-1), "v=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, slog.LevelInfo).Info("m", "v", tt.value)
			if got, want := body(t, buf.String()), "[info] m | "+tt.want; got != want {
				t.Errorf("line = %q, want %q", got, want)
			}
		})
	}
}

func TestLineHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Server stopped",
		slog.Group("stats", "served", 3, "framing_errors", 1),
		slog.Group("empty"),
	)
	logger.WithGroup("frame").With("limit", 16).Info("Payload read", "bytes", 128)

	lines := strings.SplitAfter(buf.String(), "\n")
	want := []string{
		"[info] Server stopped | stats.served=3 stats.framing_errors=1",
		"[info] Payload read | frame.limit=16 frame.bytes=128",
	}
	for i, w := range want {
		if got := body(t, lines[i]); got != w {
			t.Errorf("line %d = %q, want %q", i, got, w)
		}
	}
}

func TestLineHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, slog.LevelInfo)
	a := base.With(ConnKey, "aaaaaaaa", "remote", "10.0.0.1:1")
	b := base.With(ConnKey, "bbbbbbbb", "remote", "10.0.0.2:2")

	a.Info("Request served")
	b.Info("Request served")
	base.Info("Listening")

	lines := strings.SplitAfter(buf.String(), "\n")
	want := []string{
		"[info] <aaaaaaaa> Request served | remote=10.0.0.1:1",
		"[info] <bbbbbbbb> Request served | remote=10.0.0.2:2",
		"[info] Listening",
	}
	for i, w := range want {
		if got := body(t, lines[i]); got != w {
			t.Errorf("line %d = %q, want %q", i, got, w)
		}
	}
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("State")
	logger.Info("Listening")
	logger.Warn("Indexing failed")
	logger.Error("Error during shutdown")

	out := buf.String()
	for _, hidden := range []string{"State", "Listening"} {
		if strings.Contains(out, hidden) {
			t.Errorf("%q should be filtered at warn, got %s", hidden, out)
		}
	}
	for _, shown := range []string{"[warn] Indexing failed", "[error] Error during shutdown"} {
		if !strings.Contains(out, shown) {
			t.Errorf("expected %q, got %s", shown, out)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"off", LevelSilent},
		{"silent", LevelSilent},
		{"trace", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, LevelSilent},
		{5, true, LevelSilent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not enable any level")
	}
}

func TestTeeHandler(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(NewTeeHandler(
		NewLineHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		NewLineHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)).With(ConnKey, "c1")

	logger.Debug("Source rejected")
	logger.Warn("Indexing failed")

	if strings.Contains(console.String(), "Source rejected") {
		t.Error("console should not receive debug records")
	}
	if !strings.Contains(console.String(), "<c1> Indexing failed") {
		t.Errorf("console missing warn record, got %q", console.String())
	}
	if strings.Count(file.String(), "<c1>") != 2 {
		t.Errorf("file should receive both records with the connection prefix, got %q", file.String())
	}
}
