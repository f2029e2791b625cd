package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureCommandStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = old
	}()

	fn()

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	return buf.String()
}

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func TestConfigShow_PrintsTOMLDefaults(t *testing.T) {
	withConfigPath(t, "")

	cmd := configCmd()
	cmd.SetArgs([]string{"show"})

	var runErr error
	out := captureCommandStdout(t, func() {
		runErr = cmd.Execute()
	})
	if runErr != nil {
		t.Fatalf("config show: %v", runErr)
	}
	if !strings.Contains(out, "static_threshold") {
		t.Errorf("expected TOML output to mention static_threshold, got: %q", out)
	}
}

func TestConfigPath_EmptyReturnsError(t *testing.T) {
	withConfigPath(t, "")

	cmd := configCmd()
	cmd.SetArgs([]string{"path"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("config path with no --config set: error = nil, want an error")
	}
}

func TestConfigPath_PrintsSetPath(t *testing.T) {
	withConfigPath(t, filepath.Join(t.TempDir(), "mentor.toml"))

	cmd := configCmd()
	cmd.SetArgs([]string{"path"})

	out := captureCommandStdout(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("config path: %v", err)
		}
	})
	if strings.TrimSpace(out) != configPath {
		t.Errorf("config path output = %q, want %q", strings.TrimSpace(out), configPath)
	}
}

func TestConfigValidate_BuiltInDefaultsAreValid(t *testing.T) {
	withConfigPath(t, "")

	cmd := configCmd()
	cmd.SetArgs([]string{"validate"})

	out := captureCommandStdout(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("config validate: %v", err)
		}
	})
	if !strings.Contains(out, "config OK") {
		t.Errorf("expected config OK in output, got: %q", out)
	}
}

func TestConfigValidate_MissingFileErrors(t *testing.T) {
	// Only an unset --config falls back to defaults; a --config path that
	// points at a nonexistent file surfaces the TOML load error.
	withConfigPath(t, filepath.Join(t.TempDir(), "does-not-exist.toml"))

	cmd := configCmd()
	cmd.SetArgs([]string{"validate"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("config validate with a missing --config file: error = nil, want an error")
	}
}
