// Package lang routes files to per-language signature extractors.
//
// Extraction is structural and heuristic: each extractor recognizes the
// declaration shapes its language conventionally uses, and anything it
// cannot recognize simply produces no symbols. A file whose extractor finds
// nothing (or fails) is tracked listed-only; it is never an error for the
// surrounding build.
package lang

import (
	"path/filepath"
	"strings"

	"archmap/internal/model"
)

// FileSymbols is the shared extraction contract: everything a single file
// contributes to the index before call resolution.
type FileSymbols struct {
	Functions map[string]*model.Symbol
	Classes   map[string]*model.ClassRecord
	Constants map[string]string
	Imports   []string
}

// NewFileSymbols returns an empty, initialized result.
func NewFileSymbols() *FileSymbols {
	return &FileSymbols{
		Functions: make(map[string]*model.Symbol),
		Classes:   make(map[string]*model.ClassRecord),
		Constants: make(map[string]string),
	}
}

// HasSymbols reports whether extraction recognized any functions or classes.
// Files without either are recorded listed-only.
func (fs *FileSymbols) HasSymbols() bool {
	return len(fs.Functions) > 0 || len(fs.Classes) > 0
}

// Extractor is implemented once per supported language.
type Extractor interface {
	// Language is the canonical language name ("python", "go", ...).
	Language() string

	// Extract recognizes symbols in raw source text. An error degrades the
	// file to listed-only with the error as the recorded reason.
	Extract(src []byte) (*FileSymbols, error)
}

// extractors maps extensions to their extractor. Populated by init()
// functions in the per-language files; a static table, no runtime type
// inspection.
var extractors = map[string]Extractor{}

// parseableName maps extensions to canonical language names for stats.
var parseableName = map[string]string{}

func register(e Extractor, exts ...string) {
	for _, ext := range exts {
		extractors[ext] = e
		parseableName[ext] = e.Language()
	}
}

// typescript extensions share the javascript extractor but report their own
// language name.
func registerAs(e Extractor, name string, exts ...string) {
	for _, ext := range exts {
		extractors[ext] = e
		parseableName[ext] = name
	}
}

// ForExtension returns the extractor for a file extension, or false when the
// extension has no extractor and the file is listed-only.
func ForExtension(ext string) (Extractor, bool) {
	e, ok := extractors[ext]
	return e, ok
}

// Name returns the language name recorded for a file path: the canonical
// name for parseable extensions, otherwise the bare extension.
func Name(path string) string {
	ext := filepath.Ext(path)
	if name, ok := parseableName[ext]; ok {
		return name
	}
	if ext == "" {
		return "unknown"
	}
	return strings.TrimPrefix(ext, ".")
}

// codeExtensions are all extensions tracked in the index, parsed or not.
var codeExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {},
	".sh": {}, ".bash": {}, ".go": {},
	".rs": {}, ".java": {}, ".c": {}, ".cpp": {}, ".cc": {}, ".cxx": {},
	".h": {}, ".hpp": {}, ".rb": {}, ".php": {}, ".swift": {}, ".kt": {},
	".scala": {}, ".cs": {}, ".sql": {}, ".r": {}, ".R": {}, ".lua": {},
	".m": {}, ".ex": {}, ".exs": {}, ".jl": {}, ".dart": {}, ".vue": {},
	".svelte": {}, ".json": {}, ".html": {}, ".css": {}, ".sol": {},
}

var markdownExtensions = map[string]struct{}{
	".md": {}, ".markdown": {}, ".rst": {},
}

// IsCode reports whether the path has a tracked code extension.
func IsCode(path string) bool {
	_, ok := codeExtensions[filepath.Ext(path)]
	return ok
}

// IsMarkdown reports whether the path is a documentation file.
func IsMarkdown(path string) bool {
	_, ok := markdownExtensions[filepath.Ext(path)]
	return ok
}

// classifyValue assigns the coarse value type recorded for constants.
func classifyValue(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "value"
	case strings.HasPrefix(v, "{") || strings.HasPrefix(v, "["):
		return "collection"
	case strings.HasPrefix(v, `"`) || strings.HasPrefix(v, "'") || strings.HasPrefix(v, "`"):
		return "str"
	case isNumeric(v):
		return "number"
	default:
		return "value"
	}
}

func isNumeric(v string) bool {
	seen := false
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			seen = true
		case r == '.' || (r == '-' && i == 0):
		default:
			return false
		}
	}
	return seen
}

// firstLine trims a doc string to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
