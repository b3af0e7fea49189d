package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerAppendsToProjectLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, "intake")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("accepted %s\n", "reg-1")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".techfest", "logs", "intake.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.HasSuffix(string(data), "accepted reg-1\n") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
}

func TestWriterLoggerPrefixesLines(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "intake:").Printf("listening on %s", "127.0.0.1:8787")
	if !strings.Contains(buf.String(), "intake: listening on 127.0.0.1:8787") {
		t.Fatalf("missing prefix: %q", buf.String())
	}
}
