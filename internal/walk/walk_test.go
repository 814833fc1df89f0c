package walk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"archmap/internal/ignore"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func walkDir(t *testing.T, dir string, opts Options) *Result {
	t.Helper()
	res, err := Walk(dir, ignore.New(dir, nil), opts)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return res
}

func TestWalkCollectsFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.py", "pass")
	writeFile(t, dir, "lib/util.js", "{}")
	writeFile(t, dir, "docs/guide.md", "# Guide")
	writeFile(t, dir, "notes.txt", "not code")

	res := walkDir(t, dir, Options{MaxTreeDepth: 5, MaxFiles: 100})

	if len(res.Files) != 2 {
		t.Fatalf("files = %v", res.Files)
	}
	// Sorted by path.
	if res.Files[0].Path != "lib/util.js" || res.Files[1].Path != "main.py" {
		t.Errorf("order = %v", res.Files)
	}
	if res.Files[0].Language != "javascript" {
		t.Errorf("language = %q", res.Files[0].Language)
	}
	if len(res.Markdown) != 1 || res.Markdown[0] != "docs/guide.md" {
		t.Errorf("markdown = %v", res.Markdown)
	}
	if res.DirCount != 3 {
		t.Errorf("dirs = %d", res.DirCount)
	}
}

func TestWalkPrunesIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.py", "pass")
	writeFile(t, dir, "node_modules/pkg/index.js", "{}")
	writeFile(t, dir, ".hidden/x.py", "pass")
	writeFile(t, dir, "logs/app.log", "x")
	writeFile(t, dir, ".gitignore", "logs/\n")

	res := walkDir(t, dir, Options{MaxTreeDepth: 5, MaxFiles: 100})

	if len(res.Files) != 1 || res.Files[0].Path != "main.py" {
		t.Fatalf("files = %v", res.Files)
	}
	for _, line := range res.Tree {
		if strings.Contains(line, "node_modules") || strings.Contains(line, "logs") {
			t.Errorf("pruned dir in tree: %q", line)
		}
	}
}

func TestWalkFileCap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		writeFile(t, dir, name, "pass")
	}

	res := walkDir(t, dir, Options{MaxTreeDepth: 5, MaxFiles: 2})

	if len(res.Files) != 2 {
		t.Fatalf("files = %d", len(res.Files))
	}
	if !res.Truncated {
		t.Error("expected Truncated")
	}
}

func TestTreeRendering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# Title")
	writeFile(t, dir, "src/app.py", "pass")
	writeFile(t, dir, "src/deep/inner.py", "pass")

	res := walkDir(t, dir, Options{MaxTreeDepth: 5, MaxFiles: 100})

	joined := strings.Join(res.Tree, "\n")
	if res.Tree[0] != "." {
		t.Errorf("tree starts with %q", res.Tree[0])
	}
	if !strings.Contains(joined, "src/ (2 files)") {
		t.Errorf("missing src dir with count:\n%s", joined)
	}
	if !strings.Contains(joined, "README.md") {
		t.Errorf("missing README.md:\n%s", joined)
	}
	for _, line := range res.Tree[1:] {
		if !strings.Contains(line, "├── ") && !strings.Contains(line, "└── ") {
			t.Errorf("line without connector: %q", line)
		}
	}
}

func TestTreeDepthCap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a/b/c/d/leaf.py", "pass")

	res := walkDir(t, dir, Options{MaxTreeDepth: 2, MaxFiles: 100})

	joined := strings.Join(res.Tree, "\n")
	if !strings.Contains(joined, "└── ...") {
		t.Errorf("missing depth ellipsis:\n%s", joined)
	}
	if !res.TreeCut {
		t.Error("expected TreeCut")
	}
	if strings.Contains(joined, "c/") {
		t.Errorf("tree deeper than cap:\n%s", joined)
	}
}
