package slogutil

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"symdex/internal/config"
)

// serveRequests logs what a worker logs for n served connections.
func serveRequests(logger *slog.Logger, n int) {
	for i := 0; i < n; i++ {
		conn := logger.With(ConnKey, fmt.Sprintf("%08x-0000-4000-8000-000000000000", i), "remote", "127.0.0.1:40000")
		conn.Info("Request served", "bytes", 42, "duration", "1ms")
	}
}

func openFromConfig(t *testing.T, cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	t.Helper()
	logger, closer, err := FromConfig(cfg, io.Discard, nil)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	t.Cleanup(func() { _ = closer.Close() })
	return logger, closer
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestFromConfig_RotatesAtMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdex.log")
	logger, closer := openFromConfig(t, config.LoggingConfig{
		Level: "info", File: path, MaxSize: "300B", MaxBackups: 2,
	})

	serveRequests(logger, 40)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("%s should exist: %v", filepath.Base(p), err)
		}
		if info.Size() > 300 {
			t.Errorf("%s is %d bytes, over logging.max_size", filepath.Base(p), info.Size())
		}
	}
	if exists(path + ".3") {
		t.Error("logging.max_backups = 2 should keep no third backup")
	}

	// The newest record is in the live file; older ones were shifted out.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<00000027> Request served") {
		t.Errorf("live file should end with the last connection, got %q", data)
	}
}

func TestFromConfig_ZeroBackupsTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdex.log")
	logger, _ := openFromConfig(t, config.LoggingConfig{
		Level: "info", File: path, MaxSize: "200B", MaxBackups: 0,
	})

	serveRequests(logger, 20)

	if exists(path + ".1") {
		t.Error("logging.max_backups = 0 should not keep backups")
	}
	if !exists(path) {
		t.Error("live log file should exist")
	}
}

func TestFromConfig_NoMaxSizeNeverRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdex.log")
	logger, closer := openFromConfig(t, config.LoggingConfig{Level: "info", File: path, MaxBackups: 3})

	serveRequests(logger, 50)
	_ = closer.Close()

	if exists(path + ".1") {
		t.Error("an empty logging.max_size should disable rotation")
	}
	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "Request served"); got != 50 {
		t.Errorf("log file has %d records, want 50", got)
	}
}

func TestFromConfig_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdex.log")
	earlier := bytes.Repeat([]byte("x"), 250)
	earlier = append(earlier, '\n')
	if err := os.WriteFile(path, earlier, 0o644); err != nil {
		t.Fatal(err)
	}

	logger, closer := openFromConfig(t, config.LoggingConfig{
		Level: "info", File: path, MaxSize: "300B", MaxBackups: 1,
	})
	serveRequests(logger, 1)
	_ = closer.Close()

	// The existing 251 bytes count towards the limit, so the first record
	// rotates them out.
	backup, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatalf("existing content should be rotated to .1: %v", err)
	}
	if !bytes.Equal(backup, earlier) {
		t.Errorf("backup = %q, want the earlier content", backup)
	}
}

func TestFromConfig_UnwritableFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := FromConfig(config.LoggingConfig{File: filepath.Join(blocker, "symdex.log")}, io.Discard, nil)
	if err == nil {
		t.Error("FromConfig should fail when the log directory cannot be created")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{" 2 mb ", 2 << 20},
		{"1.5MB", 3 << 19},
		{"1GB", 1 << 30},
		{"300B", 300},
		{"4096", 4096},
		{"-1MB", 0},
		{"lots", 0},
	}
	for _, tt := range tests {
		if got := ParseSize(tt.input); got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
