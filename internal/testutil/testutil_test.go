package testutil

import (
	"bytes"
	"io"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	f := LoadFixture(t, "java", "Hello.java")
	if f.Language != "java" || f.Name != "Hello.java" {
		t.Errorf("unexpected fixture metadata: %+v", f)
	}
	if !bytes.HasPrefix(f.Source, []byte("package com.example;")) {
		t.Errorf("unexpected fixture content: %q", f.Source[:20])
	}
}

func TestFixtureNames(t *testing.T) {
	names := FixtureNames(t, "python")
	if len(names) == 0 || names[0] != "counter.py" {
		t.Errorf("FixtureNames(python) = %v", names)
	}
}

func TestFrame(t *testing.T) {
	if got := string(Frame([]byte("abc"))); got != "3\nabc" {
		t.Errorf("Frame = %q", got)
	}
	if got := string(Frame(nil)); got != "0\n" {
		t.Errorf("Frame(nil) = %q", got)
	}
}

func TestExchange(t *testing.T) {
	ln := Listen(t)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		data, _ := io.ReadAll(conn)
		_, _ = conn.Write(bytes.ToUpper(data))
	}()

	if got := string(Exchange(t, ln.Addr().String(), []byte("ping"))); got != "PING" {
		t.Errorf("Exchange = %q, want PING", got)
	}
}
