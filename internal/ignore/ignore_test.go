package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinDirs(t *testing.T) {
	t.Parallel()

	f := New(t.TempDir(), nil)

	for _, dir := range []string{"node_modules", "__pycache__", "vendor", ".git"} {
		if !f.ExcludeDir(dir) {
			t.Errorf("ExcludeDir(%q) = false", dir)
		}
	}
	if f.ExcludeDir("src") {
		t.Error("src should not be excluded")
	}
	if !f.ExcludeDir("src/node_modules") {
		t.Error("nested node_modules should be excluded")
	}
}

func TestHiddenPaths(t *testing.T) {
	t.Parallel()

	f := New(t.TempDir(), nil)

	if !f.ExcludeDir(".cache") {
		t.Error(".cache should be excluded")
	}
	if !f.ExcludeFile("src/.secret.py") {
		t.Error("hidden file should be excluded")
	}
	if f.ExcludeFile("src/main.py") {
		t.Error("main.py should not be excluded")
	}
}

func TestGitignorePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gi := "*.log\ngenerated/\n!keep.log\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gi), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(dir, nil)

	if !f.ExcludeFile("app/debug.log") {
		t.Error("*.log should match nested files")
	}
	if f.ExcludeFile("keep.log") {
		t.Error("negated pattern should re-include keep.log")
	}
	if !f.ExcludeDir("generated") {
		t.Error("generated/ should be excluded")
	}
	if f.ExcludeFile("app/main.py") {
		t.Error("main.py should not be excluded")
	}
}

func TestExtraPatterns(t *testing.T) {
	t.Parallel()

	f := New(t.TempDir(), []string{"fixtures/", "*.gen.go"})

	if !f.ExcludeDir("fixtures") {
		t.Error("configured dir pattern should exclude fixtures")
	}
	if !f.ExcludeFile("api/types.gen.go") {
		t.Error("configured file pattern should exclude generated code")
	}
}
