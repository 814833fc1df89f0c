// Package model defines the core data structures of the architectural index.
package model

import (
	"sort"
	"strings"
	"time"
)

// SymbolKind indicates whether a symbol is a free function or a method.
type SymbolKind string

const (
	Function SymbolKind = "function"
	Method   SymbolKind = "method"
)

// ClassKind distinguishes ordinary classes from the special shapes the
// extractors recognize.
type ClassKind string

const (
	ClassPlain     ClassKind = "class"
	ClassEnum      ClassKind = "enum"
	ClassException ClassKind = "exception"
	ClassInterface ClassKind = "interface"
)

// Symbol is a single function or method. Its identity within an Index is the
// ID built from the owning file path and the qualified name; call edges refer
// to symbols by ID value, never by pointer, so cyclic call graphs carry no
// ownership cycles.
type Symbol struct {
	Name        string     `json:"name"`
	Kind        SymbolKind `json:"kind"`
	Signature   string     `json:"signature,omitempty"`
	Doc         string     `json:"doc,omitempty"`
	Stereotypes []string   `json:"stereotypes,omitempty"`
	Calls       []string   `json:"calls,omitempty"`
	CalledBy    []string   `json:"called_by,omitempty"`

	// Body is the retained source text of the symbol, used only by call
	// resolution. It is never serialized.
	Body string `json:"-"`
}

// IDSep separates the file path from the qualified name in a symbol ID.
const IDSep = "::"

// SymbolID builds the stable identity of a symbol from its file path and
// qualified name ("foo" or "Class.method").
func SymbolID(path, qualified string) string {
	return path + IDSep + qualified
}

// SplitID returns the file path and qualified name of a symbol ID.
func SplitID(id string) (path, qualified string) {
	i := strings.LastIndex(id, IDSep)
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+len(IDSep):]
}

// ClassRecord describes a class-like declaration and its members.
type ClassRecord struct {
	Name        string             `json:"name"`
	Kind        ClassKind          `json:"kind"`
	Inherits    []string           `json:"inherits,omitempty"`
	Abstract    bool               `json:"abstract,omitempty"`
	Methods     map[string]*Symbol `json:"methods,omitempty"`
	Properties  []string           `json:"properties,omitempty"`
	Constants   map[string]string  `json:"constants,omitempty"`
	Values      []string           `json:"values,omitempty"`
	Stereotypes []string           `json:"stereotypes,omitempty"`
	Doc         string             `json:"doc,omitempty"`
}

// FileRecord is the complete extraction result for one file. Records are
// replaced wholesale whenever their file is (re)parsed and removed when the
// file is deleted; fields are never patched individually.
type FileRecord struct {
	Path       string                  `json:"-"`
	Language   string                  `json:"language"`
	Parsed     bool                    `json:"parsed"`
	ParseError string                  `json:"parse_error,omitempty"`
	Purpose    string                  `json:"purpose,omitempty"`
	Functions  map[string]*Symbol      `json:"functions,omitempty"`
	Classes    map[string]*ClassRecord `json:"classes,omitempty"`
	Constants  map[string]string       `json:"constants,omitempty"`
	Imports    []string                `json:"imports,omitempty"`
}

// Symbols iterates all symbols owned by the record, handing each to fn with
// its ID. Iteration order is deterministic.
func (fr *FileRecord) Symbols(fn func(id string, sym *Symbol)) {
	for _, name := range sortedKeys(fr.Functions) {
		fn(SymbolID(fr.Path, name), fr.Functions[name])
	}
	for _, cname := range sortedKeys(fr.Classes) {
		cls := fr.Classes[cname]
		for _, mname := range sortedKeys(cls.Methods) {
			fn(SymbolID(fr.Path, cname+"."+mname), cls.Methods[mname])
		}
	}
}

// Lookup returns the symbol with the given qualified name, or nil.
func (fr *FileRecord) Lookup(qualified string) *Symbol {
	if sym, ok := fr.Functions[qualified]; ok {
		return sym
	}
	if dot := strings.LastIndex(qualified, "."); dot > 0 {
		if cls, ok := fr.Classes[qualified[:dot]]; ok {
			return cls.Methods[qualified[dot+1:]]
		}
	}
	return nil
}

// DirectoryNode is one directory in the depth-capped tree. FileCount counts
// code files in the subtree.
type DirectoryNode struct {
	Path      string           `json:"path"`
	Purpose   string           `json:"purpose,omitempty"`
	FileCount int              `json:"file_count"`
	Children  []*DirectoryNode `json:"children,omitempty"`
}

// DocEntry holds the documentation map entry for one markdown file.
type DocEntry struct {
	Sections []string `json:"sections,omitempty"`
	Hints    []string `json:"architecture_hints,omitempty"`
}

// WalkError records a filesystem failure that caused a subtree to be skipped.
type WalkError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Stats aggregates per-language counts.
type Stats struct {
	TotalFiles    int            `json:"total_files"`
	TotalDirs     int            `json:"total_directories"`
	MarkdownFiles int            `json:"markdown_files"`
	FullyParsed   map[string]int `json:"fully_parsed,omitempty"`
	ListedOnly    map[string]int `json:"listed_only,omitempty"`
}

// Index is the persisted architectural index. It is written atomically as a
// whole and patched in place only at FileRecord granularity.
type Index struct {
	Root          string                 `json:"root"`
	BuiltAt       time.Time              `json:"built_at"`
	Tree          []string               `json:"tree,omitempty"`
	TreeTruncated bool                   `json:"tree_truncated,omitempty"`
	DirPurposes   map[string]string      `json:"directory_purposes,omitempty"`
	Docs          map[string]*DocEntry   `json:"documentation_map,omitempty"`
	Files         map[string]*FileRecord `json:"files"`
	Deps          map[string][]string    `json:"dependency_graph,omitempty"`
	Stats         Stats                  `json:"stats"`
	Errors        []WalkError            `json:"errors,omitempty"`
	DroppedListed int                    `json:"dropped_listed_only,omitempty"`
}

// Rekey restores FileRecord.Path fields after JSON decoding, where paths
// live only as map keys.
func (idx *Index) Rekey() {
	for path, fr := range idx.Files {
		fr.Path = path
	}
}

// LookupSymbol resolves a symbol ID to its Symbol, or nil.
func (idx *Index) LookupSymbol(id string) *Symbol {
	path, qualified := SplitID(id)
	fr, ok := idx.Files[path]
	if !ok {
		return nil
	}
	return fr.Lookup(qualified)
}

// EachSymbol iterates every symbol in the index in deterministic order.
func (idx *Index) EachSymbol(fn func(id string, fr *FileRecord, sym *Symbol)) {
	for _, path := range sortedKeys(idx.Files) {
		fr := idx.Files[path]
		fr.Symbols(func(id string, sym *Symbol) {
			fn(id, fr, sym)
		})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
