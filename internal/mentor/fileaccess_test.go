package mentor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWrite := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	mustWrite("main.go", "package main\n")
	mustWrite(".git/config", "[core]\n")
	mustWrite("sub/notes.txt", strings.Repeat("x", 10))
	mustWrite("big.go", strings.Repeat("y", fileSnippetBytes+500))
	mustWrite("binary.exe", "MZ")
	return root
}

func TestOpenWorkspaceFile(t *testing.T) {
	root := testWorkspace(t)
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = root

	escapePath, err := filepath.Rel(root, "/etc/passwd")
	if err != nil {
		t.Fatalf("computing escape path: %v", err)
	}

	tests := []struct {
		name    string
		ref     FileReference
		wantErr DenyReason
		wantOK  bool
	}{
		{name: "allowed go file", ref: FileReference{Path: "main.go"}, wantOK: true},
		{name: "nested allowed file", ref: FileReference{Path: "sub/notes.txt"}, wantOK: true},
		{name: "denied pattern", ref: FileReference{Path: ".git/config"}, wantErr: DenyPatternMatch},
		{name: "disallowed extension", ref: FileReference{Path: "binary.exe"}, wantErr: DenyExtension},
		{name: "path traversal to an existing file outside root", ref: FileReference{Path: escapePath}, wantErr: DenyOutsideRoot},
		{name: "missing file", ref: FileReference{Path: "does-not-exist.go"}, wantErr: DenyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snip, err := OpenWorkspaceFile(tt.ref, cfg)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("OpenWorkspaceFile(%q) error = %v, want nil", tt.ref.Path, err)
				}
				if snip.Content == "" {
					t.Errorf("OpenWorkspaceFile(%q) returned empty content", tt.ref.Path)
				}
				return
			}
			merr, ok := err.(*MentorError)
			if !ok {
				t.Fatalf("OpenWorkspaceFile(%q) = %v, want *MentorError", tt.ref.Path, err)
			}
			if merr.Reason != string(tt.wantErr) {
				t.Errorf("OpenWorkspaceFile(%q) reason = %q, want %q", tt.ref.Path, merr.Reason, tt.wantErr)
			}
			if merr.Kind != ErrFileDenied {
				t.Errorf("OpenWorkspaceFile(%q) kind = %q, want %q", tt.ref.Path, merr.Kind, ErrFileDenied)
			}
		})
	}
}

func TestOpenWorkspaceFileTruncates(t *testing.T) {
	root := testWorkspace(t)
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = root

	snip, err := OpenWorkspaceFile(FileReference{Path: "big.go"}, cfg)
	if err != nil {
		t.Fatalf("OpenWorkspaceFile(big.go) error = %v", err)
	}
	if !snip.Truncated {
		t.Error("expected big.go to be truncated")
	}
	if len(snip.Content) != fileSnippetBytes {
		t.Errorf("truncated content length = %d, want %d", len(snip.Content), fileSnippetBytes)
	}
}

func TestOpenWorkspaceFileWindowsDrivePrefix(t *testing.T) {
	if isWindowsDrivePrefixed("notapath") {
		t.Error("isWindowsDrivePrefixed(\"notapath\") = true, want false")
	}
	if !isWindowsDrivePrefixed(`C:\Users\x`) {
		t.Error(`isWindowsDrivePrefixed("C:\\Users\\x") = false, want true`)
	}
}
