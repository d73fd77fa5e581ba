// Package slogutil provides the slog handler and logger constructors used by symdex.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"
)

// ConnKey is the attribute that names a client connection. LineHandler
// moves it in front of the message so one exchange can be followed with grep.
const ConnKey = "conn"

// connIDLen is how much of a connection ID the line prefix shows.
const connIDLen = 8

// LineHandler writes one line per record:
//
//	TIMESTAMP [level] <conn> Message | key=value key="spaced value"
//
// Attributes passed to WithAttrs are formatted once, when they are added.
type LineHandler struct {
	w     io.Writer
	level slog.Leveler
	conn  string
	// pre holds the formatted " key=value" pairs of WithAttrs.
	pre []byte
	// group is the dotted group prefix, ending in '.' when set.
	group string
	mu    *sync.Mutex
}

// NewLineHandler creates a handler writing to w.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &LineHandler{w: w, level: level, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	conn := h.conn
	tail := make([]byte, 0, len(h.pre)+64)
	tail = append(tail, h.pre...)
	r.Attrs(func(a slog.Attr) bool {
		if conn == "" && h.group == "" && a.Key == ConnKey {
			conn = a.Value.Resolve().String()
			return true
		}
		tail = appendAttr(tail, h.group, a)
		return true
	})

	buf := make([]byte, 0, 64+len(r.Message)+len(tail))
	buf = r.Time.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, " ["...)
	buf = append(buf, levelString(r.Level)...)
	buf = append(buf, "] "...)
	if conn != "" {
		buf = append(buf, '<')
		buf = append(buf, shortID(conn)...)
		buf = append(buf, "> "...)
	}
	buf = append(buf, r.Message...)
	if len(tail) > 0 {
		buf = append(buf, " |"...)
		buf = append(buf, tail...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.pre = append([]byte(nil), h.pre...)
	for _, a := range attrs {
		if next.conn == "" && h.group == "" && a.Key == ConnKey {
			next.conn = a.Value.Resolve().String()
			continue
		}
		next.pre = appendAttr(next.pre, h.group, a)
	}
	return &next
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

// appendAttr appends " key=value". Group values are flattened into dotted
// keys and empty groups are dropped.
func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range v.Group() {
			buf = appendAttr(buf, prefix, ga)
		}
		return buf
	}
	if a.Key == "" {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, v)
}

func appendValue(buf []byte, v slog.Value) []byte {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = fmt.Sprint(v.Any())
	}
	if needsQuote(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

// needsQuote reports whether s would be ambiguous unquoted on a log line.
func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == '|' || r == utf8.RuneError || r == 0x7f {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > connIDLen {
		return id[:connIDLen]
	}
	return id
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}
