package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// resetFlags restores every global flag and the loaded config.
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	configPath = ""
	logLevel = ""
	cfg = defaultConfig()

	getOut, getRaw, getWrap = "", false, false
	putIn, putScheme, putTimestamp, putWrap, putCreate = "-", "", 0, false, false
	rmWrap = false
	lsOrder = "slot"
	optimizePlan, optimizeNoCompact = "", false
}

// tempRegion returns a path for a region file in a fresh temp dir.
func tempRegion(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "r.0.0.mca")
}

// writeInput writes data to a temp file and returns its path.
func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// assertJSON checks that output is valid JSON and decodes it into v.
func assertJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}

// putChunk stores data at coord through the put command.
func putChunk(t *testing.T, path, coord string, data []byte) {
	t.Helper()
	putIn = writeInput(t, data)
	putCreate = true
	putTimestamp = 1700000000
	_, err := captureOutput(t, func() error { return runPut(context.Background(), []string{path, coord}) })
	require.NoError(t, err)
	putIn, putCreate, putTimestamp = "-", false, 0
}
