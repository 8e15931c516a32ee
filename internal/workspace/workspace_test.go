package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTestCheckout(t *testing.T) (string, *Service) {
	t.Helper()
	tmpDir := t.TempDir()
	svc, err := New(tmpDir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tmpDir, svc
}

func TestService_ResolvePath(t *testing.T) {
	tmpDir, svc := setupTestCheckout(t)
	root, _ := filepath.Abs(tmpDir)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"simple", "a.erl", filepath.Join(root, "a.erl"), false},
		{"nested", "src/couch/couch.erl", filepath.Join(root, "src", "couch", "couch.erl"), false},
		{"leading slash", "/a.erl", filepath.Join(root, "a.erl"), false},
		{"dotdot inside", "src/../a.erl", filepath.Join(root, "a.erl"), false},
		{"name starting with dots", "..hidden.erl", filepath.Join(root, "..hidden.erl"), false},
		{"traversal", "../secret.erl", "", true},
		{"deep traversal", "src/../../etc/passwd", "", true},
		{"leading space", " a.erl", filepath.Join(root, " a.erl"), false},
		{"trailing space", "src/a.erl ", filepath.Join(root, "src", "a.erl "), false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolvePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolvePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestService_Exists(t *testing.T) {
	tmpDir, svc := setupTestCheckout(t)

	if err := os.MkdirAll(filepath.Join(tmpDir, "src", "dir.erl"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "src", "mod.erl"), []byte("-module(mod).\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, " spaced.erl "), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"src/mod.erl", true},
		{"src/gone.erl", false},
		{"src/dir.erl", false},
		{"../outside.erl", false},
		{" spaced.erl ", true},
		{"spaced.erl", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := svc.Exists(tt.path); got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestNew_EmptyRootUsesWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	svc, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") error = %v", err)
	}
	if svc.Root() != wd {
		t.Errorf("Root() = %q, want %q", svc.Root(), wd)
	}
}
