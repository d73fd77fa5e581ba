package slogutil

import (
	"io"
	"log/slog"

	"symdex/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig builds the process logger from the [logging] section.
// Records always go to w; when cfg.File is set they are also appended to
// that file, rotated at cfg.MaxSize. cliLevel overrides cfg.Level when
// non-nil. The returned closer releases the log file.
func FromConfig(cfg config.LoggingConfig, w io.Writer, cliLevel *slog.Level) (*slog.Logger, io.Closer, error) {
	level := LevelFromString(cfg.Level)
	if cliLevel != nil {
		level = *cliLevel
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.File == "" {
		return slog.New(NewLineHandler(w, opts)), nopCloser{}, nil
	}

	out, err := OpenRotatingFile(cfg.File, ParseSize(cfg.MaxSize), cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}

	handler := NewTeeHandler(NewLineHandler(w, opts), NewLineHandler(out, opts))
	return slog.New(handler), out, nil
}
