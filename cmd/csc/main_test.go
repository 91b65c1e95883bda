package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"IMAGE_ROWS", "IMAGE_COLS", "IMAGE_FORMAT", "CSC_VARIANT", "CSC_WORKERS",
	"OUTPUT_DIR", "OUTPUT_DIAGNOSTICS", "PRINT_RUNTIME", "OUTPUT_SAVE_YCC", "OUTPUT_COMPRESS", "OUTPUT_PREVIEW",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	p, err := parseFlags([]string{
		"-rows", "4", "-cols", "6", "-variant", " vector ", "-workers", "2",
		"-out", "/tmp/x", "-diagnostics", "-save-ycc", "-compress=false", "-preview", "in.raw",
	}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "in.raw", p.input)
	assert.Equal(t, 4, p.opts.Rows)
	assert.Equal(t, 6, p.opts.Cols)
	assert.Equal(t, "vector", p.opts.Variant)
	assert.Equal(t, 2, p.opts.Workers)
	assert.Equal(t, "/tmp/x", p.opts.OutputDir)
	assert.True(t, p.opts.Diagnostics)
	assert.True(t, p.opts.SaveYCC)
	assert.True(t, p.opts.NoCompress)
	assert.True(t, p.opts.Preview)

	_, err = parseFlags(nil, &stderr)
	assert.ErrorIs(t, err, errUsage)

	_, err = parseFlags([]string{"a.raw", "b.raw"}, &stderr)
	assert.ErrorIs(t, err, errUsage)

	p, err = parseFlags([]string{"-version"}, &stderr)
	require.NoError(t, err)
	assert.True(t, p.version)
}

func TestRun(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.raw")
	require.NoError(t, os.WriteFile(input, bytes.Repeat([]byte{128}, 4*6*3), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-rows", "4", "-cols", "6", "-out", dir, "-save-ycc", input,
	}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, []string{
		filepath.Join(dir, "output.ycc"),
		filepath.Join(dir, "output_RGB.ppm"),
	}, strings.Fields(stdout.String()))
	assert.Contains(t, stderr.String(), "runtime:")
	assert.FileExists(t, filepath.Join(dir, "output_RGB.ppm"))
}

func TestRunLogFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.raw")
	require.NoError(t, os.WriteFile(input, bytes.Repeat([]byte{40}, 4*6*3), 0o644))
	logPath := filepath.Join(dir, "csc.log")
	t.Setenv("LOG_FILE", logPath)
	t.Setenv("LOG_FORMAT", "json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-rows", "4", "-cols", "6", "-out", dir, input}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"info"`)
	assert.Contains(t, string(data), "runtime:")

	t.Setenv("LOG_FILE", filepath.Join(dir, "missing", "csc.log"))
	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{"-rows", "4", "-cols", "6", "-out", dir, input}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "failed to open log file")
}

func TestRunFailures(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"no input", nil},
		{"unknown flag", []string{"-bogus", "x.raw"}},
		{"odd rows", []string{"-rows", "3", "-out", dir, "x.raw"}},
		{"missing file", []string{"-rows", "4", "-cols", "4", "-out", dir, filepath.Join(dir, "none.raw")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(context.Background(), tt.args, &stdout, &stderr))
			assert.NotZero(t, stderr.Len())
		})
	}
}

func TestRunHelpAndVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"-help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "USAGE: csc")

	stdout.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), appName+" "+appVersion)
}
