package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesTraceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.log")

	if err := run(50, "", path, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading trace file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected a non-empty trace file")
	}
}

func TestRunFiltersByComponent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.log")

	if err := run(50, "", path, "core0"); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading trace file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected at least one core0 trace event (the invalid-opcode warning)")
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		if !strings.Contains(line, "core0") {
			t.Fatalf("unexpected unfiltered line: %q", line)
		}
	}
}

func TestRunUnknownConfigPath(t *testing.T) {
	if err := run(10, "/nonexistent/path/to/config.yaml", "", ""); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
