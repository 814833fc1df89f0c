// Package ignore decides which paths are included in the index.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// builtinDirs is the fixed exclusion set: version-control metadata and
// dependency/cache/build directories. These are never overridable, not even
// by negated ignore rules.
var builtinDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	"__pycache__":   {},
	"node_modules":  {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	".idea":         {},
	".vscode":       {},
	"build":         {},
	"dist":          {},
	"target":        {},
	"vendor":        {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// Filter is a pure include/exclude policy over root-relative paths. Rules
// come from three layers: the built-in directory set, a .gitignore at the
// root (if present), and extra configured patterns. Extra patterns are
// compiled after the .gitignore lines, so they win on overlap; within each
// source, standard gitignore precedence applies (later and more specific
// rules override earlier ones).
type Filter struct {
	matcher *gitignore.GitIgnore
}

// New builds a Filter for root with the given extra gitignore-style
// patterns.
func New(root string, extraPatterns []string) *Filter {
	var lines []string
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = strings.Split(string(data), "\n")
	}
	lines = append(lines, extraPatterns...)
	if len(lines) == 0 {
		return &Filter{}
	}
	return &Filter{matcher: gitignore.CompileIgnoreLines(lines...)}
}

// BuiltinDir reports whether a directory basename is in the fixed exclusion
// set.
func BuiltinDir(base string) bool {
	_, ok := builtinDirs[base]
	return ok
}

// ExcludeDir reports whether the directory at root-relative rel should be
// pruned. Hidden directories and built-ins are always excluded.
func (f *Filter) ExcludeDir(rel string) bool {
	base := filepath.Base(rel)
	if BuiltinDir(base) || strings.HasPrefix(base, ".") {
		return true
	}
	if f.matcher != nil && f.matcher.MatchesPath(rel+"/") {
		return true
	}
	return false
}

// ExcludeFile reports whether the file at root-relative rel should be
// skipped. Hidden files are always excluded.
func (f *Filter) ExcludeFile(rel string) bool {
	if strings.HasPrefix(filepath.Base(rel), ".") {
		return true
	}
	if f.matcher != nil && f.matcher.MatchesPath(rel) {
		return true
	}
	return false
}
