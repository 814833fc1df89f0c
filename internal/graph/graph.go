// Package graph resolves call edges between the symbols of an index. It
// works on retained symbol bodies with per-language token patterns;
// ambiguous references stay unresolved rather than guessed, so the graph
// may miss edges but does not invent them.
package graph

import (
	"regexp"
	"sort"
	"strings"

	"archmap/internal/model"
)

var (
	callRe      = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
	shellCallRe = regexp.MustCompile(`(?m)(?:^|[;&|]\s*|\$\(|` + "`" + `)\s*([A-Za-z_][\w-]*)\b`)
)

// stopwords are tokens the call pattern matches that are never calls worth
// an edge: keywords, builtins and ubiquitous library names.
var stopwords = map[string]map[string]struct{}{
	"python": set("if", "elif", "for", "while", "return", "def", "class", "lambda",
		"with", "try", "except", "raise", "assert", "yield", "not", "and", "or", "in",
		"is", "print", "len", "range", "str", "int", "float", "bool", "list", "dict",
		"set", "tuple", "type", "isinstance", "issubclass", "super", "open",
		"enumerate", "zip", "map", "filter", "sorted", "reversed", "min", "max",
		"sum", "abs", "any", "all", "format", "repr", "hash", "iter", "next",
		"getattr", "setattr", "hasattr", "vars", "id", "input", "round"),
	"javascript": set("if", "for", "while", "switch", "catch", "return", "function",
		"typeof", "instanceof", "new", "require", "import", "log", "error", "warn",
		"info", "debug", "push", "pop", "shift", "unshift", "slice", "splice",
		"map", "filter", "forEach", "reduce", "find", "includes", "indexOf",
		"join", "split", "replace", "trim", "then", "parse", "stringify",
		"resolve", "reject", "setTimeout", "setInterval", "clearTimeout",
		"addEventListener", "querySelector", "toString", "hasOwnProperty",
		"keys", "values", "entries", "assign", "freeze", "test", "match", "exec"),
	"go": set("if", "for", "switch", "select", "return", "func", "go", "defer",
		"make", "new", "len", "cap", "append", "copy", "delete", "panic", "recover",
		"close", "print", "println", "string", "byte", "rune", "bool", "error",
		"int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16",
		"uint32", "uint64", "float32", "float64", "complex64", "complex128",
		"uintptr", "any", "min", "max", "clear", "range"),
	"shell": set("if", "then", "else", "elif", "fi", "for", "do", "done", "while",
		"until", "case", "esac", "function", "echo", "printf", "cd", "exit",
		"test", "local", "read", "shift", "eval", "exec", "set", "unset", "trap",
		"wait", "sleep", "return", "true", "false", "export", "source", "grep",
		"sed", "awk", "cat", "rm", "mv", "cp", "mkdir", "touch", "chmod", "find",
		"sort", "head", "tail", "cut", "tr", "wc", "xargs", "curl", "date"),
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func stopwordsFor(language string) map[string]struct{} {
	if language == "typescript" {
		language = "javascript"
	}
	if s, ok := stopwords[language]; ok {
		return s
	}
	return stopwords["javascript"]
}

type candidate struct {
	id   string
	path string
}

// nameIndex maps the final component of each qualified symbol name to the
// symbols carrying it, sorted for deterministic preference.
type nameIndex map[string][]candidate

func buildIndex(files map[string]*model.FileRecord) nameIndex {
	idx := make(nameIndex)
	for path, fr := range files {
		fr.Symbols(func(id string, _ *model.Symbol) {
			_, qualified := model.SplitID(id)
			final := qualified
			if dot := strings.LastIndex(qualified, "."); dot >= 0 {
				final = qualified[dot+1:]
			}
			idx[final] = append(idx[final], candidate{id: id, path: path})
		})
	}
	for name := range idx {
		cs := idx[name]
		sort.Slice(cs, func(i, j int) bool {
			if cs[i].path != cs[j].path {
				return cs[i].path < cs[j].path
			}
			return cs[i].id < cs[j].id
		})
	}
	return idx
}

// Resolve recomputes every call edge in files from scratch. Existing edges
// are discarded first, so resolving twice yields identical results.
func Resolve(files map[string]*model.FileRecord, deps map[string][]string) {
	for _, fr := range files {
		fr.Symbols(func(_ string, sym *model.Symbol) {
			sym.Calls = nil
			sym.CalledBy = nil
		})
	}
	idx := buildIndex(files)
	for path, fr := range files {
		resolveFile(path, fr, idx, deps)
	}
	rebuildCalledBy(files)
}

// PatchFile re-resolves edges after files[edited] has been replaced or
// re-extracted. Outgoing edges of the edited file are rebuilt, edges from
// other files into symbols that no longer exist are dropped, and edges into
// symbols that survived the edit are kept.
func PatchFile(files map[string]*model.FileRecord, deps map[string][]string, edited string) {
	idx := buildIndex(files)
	if fr, ok := files[edited]; ok {
		resolveFile(edited, fr, idx, deps)
	}
	pruneDangling(files)
	rebuildCalledBy(files)
}

// RemoveFile deletes a file's record and every edge that pointed into it.
func RemoveFile(files map[string]*model.FileRecord, path string) {
	delete(files, path)
	pruneDangling(files)
	rebuildCalledBy(files)
}

func resolveFile(path string, fr *model.FileRecord, idx nameIndex, deps map[string][]string) {
	imported := make(map[string]struct{}, len(deps[path]))
	for _, dep := range deps[path] {
		imported[dep] = struct{}{}
	}
	stop := stopwordsFor(fr.Language)
	tokenRe := callRe
	if fr.Language == "shell" {
		tokenRe = shellCallRe
	}

	fr.Symbols(func(selfID string, sym *model.Symbol) {
		sym.Calls = nil
		if sym.Body == "" {
			return
		}
		seen := map[string]struct{}{}
		for _, m := range tokenRe.FindAllStringSubmatch(sym.Body, -1) {
			token := m[1]
			if _, skip := stop[token]; skip {
				continue
			}
			if target := resolveToken(token, path, selfID, idx, imported); target != "" {
				if _, dup := seen[target]; !dup {
					seen[target] = struct{}{}
					sym.Calls = append(sym.Calls, target)
				}
			}
		}
		sort.Strings(sym.Calls)
	})
}

// resolveToken picks the symbol a call token refers to. Same-file symbols
// win, then symbols in imported files (smallest path breaks ties), then a
// candidate whose name exists in only one file. Anything still ambiguous
// resolves to nothing.
func resolveToken(token, path, selfID string, idx nameIndex, imported map[string]struct{}) string {
	candidates := idx[token]
	if len(candidates) == 0 {
		return ""
	}

	for _, c := range candidates {
		if c.path == path && c.id != selfID {
			return c.id
		}
	}
	for _, c := range candidates {
		if _, ok := imported[c.path]; ok {
			return c.id
		}
	}
	single := candidates[0].path
	for _, c := range candidates[1:] {
		if c.path != single {
			return ""
		}
	}
	if candidates[0].id == selfID && len(candidates) == 1 {
		return ""
	}
	return candidates[0].id
}

// pruneDangling removes outgoing edges whose target symbol is gone.
func pruneDangling(files map[string]*model.FileRecord) {
	exists := func(id string) bool {
		p, q := model.SplitID(id)
		fr, ok := files[p]
		return ok && fr.Lookup(q) != nil
	}
	for _, fr := range files {
		fr.Symbols(func(_ string, sym *model.Symbol) {
			kept := sym.Calls[:0]
			for _, id := range sym.Calls {
				if exists(id) {
					kept = append(kept, id)
				}
			}
			sym.Calls = kept
			if len(sym.Calls) == 0 {
				sym.Calls = nil
			}
		})
	}
}

// rebuildCalledBy derives every inbound edge list from the outbound ones,
// keeping the two directions consistent.
func rebuildCalledBy(files map[string]*model.FileRecord) {
	for _, fr := range files {
		fr.Symbols(func(_ string, sym *model.Symbol) {
			sym.CalledBy = nil
		})
	}
	for _, fr := range files {
		fr.Symbols(func(callerID string, sym *model.Symbol) {
			for _, target := range sym.Calls {
				p, q := model.SplitID(target)
				if tf, ok := files[p]; ok {
					if ts := tf.Lookup(q); ts != nil {
						ts.CalledBy = append(ts.CalledBy, callerID)
					}
				}
			}
		})
	}
	for _, fr := range files {
		fr.Symbols(func(_ string, sym *model.Symbol) {
			if len(sym.CalledBy) > 0 {
				sort.Strings(sym.CalledBy)
			}
		})
	}
}
