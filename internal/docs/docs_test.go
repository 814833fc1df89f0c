package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanSections(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "README.md", `# MyApp

Intro text.

## Installation

### From source

#### Too deep to index
`)

	entries := Scan(dir, []string{"README.md"})
	entry := entries["README.md"]
	if entry == nil {
		t.Fatal("README.md not scanned")
	}
	want := []string{"MyApp", "Installation", "From source"}
	if len(entry.Sections) != len(want) {
		t.Fatalf("sections = %v", entry.Sections)
	}
	for i, s := range want {
		if entry.Sections[i] != s {
			t.Errorf("section %d = %q, want %q", i, entry.Sections[i], s)
		}
	}
}

func TestScanHints(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "ARCHITECTURE.md", `# Architecture

The entry point is `+"`cmd/server/main.go`"+`.
Request routing is defined in src/routes.py, see [handlers](src/handlers.py).
More at https://example.com/docs/page for background.
`)

	entries := Scan(dir, []string{"ARCHITECTURE.md"})
	entry := entries["ARCHITECTURE.md"]
	if entry == nil {
		t.Fatal("not scanned")
	}
	joined := strings.Join(entry.Hints, " ")
	for _, want := range []string{"cmd/server/main.go", "src/routes.py", "src/handlers.py"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing hint %q in %v", want, entry.Hints)
		}
	}
	for _, h := range entry.Hints {
		if strings.HasPrefix(h, "http") {
			t.Errorf("URL leaked into hints: %q", h)
		}
	}
}

func TestScanCapsAndEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("# Section\ntext\n")
	}
	writeDoc(t, dir, "big.md", b.String())
	writeDoc(t, dir, "empty.md", "just prose, no headers\n")

	entries := Scan(dir, []string{"big.md", "empty.md", "missing.md"})

	if got := len(entries["big.md"].Sections); got != 10 {
		t.Errorf("sections capped at %d", got)
	}
	if _, ok := entries["empty.md"]; ok {
		t.Error("entry for documentation with nothing to map")
	}
	if _, ok := entries["missing.md"]; ok {
		t.Error("entry for unreadable file")
	}
}
