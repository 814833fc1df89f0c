// Package assemble merges the outputs of the walker, extractors, resolver
// and documentation scanner into a single index document and serializes it
// under a byte budget.
package assemble

import (
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"archmap/internal/model"
	"archmap/internal/walk"
)

// probeExts are tried in order when a relative import omits its extension.
var probeExts = []string{"", ".py", ".js", ".ts", ".jsx", ".tsx", ".sh"}

// Build merges walk results, per-file extraction records and the
// documentation map into an index rooted at root.
func Build(root string, wr *walk.Result, files map[string]*model.FileRecord, docs map[string]*model.DocEntry) *model.Index {
	idx := &model.Index{
		Root:          root,
		BuiltAt:       time.Now().UTC(),
		Tree:          wr.Tree,
		TreeTruncated: wr.TreeCut,
		Docs:          docs,
		Files:         files,
		Errors:        wr.Errors,
	}
	idx.DirPurposes = collectPurposes(wr.Root)
	idx.Deps = ResolveImports(files)
	idx.Stats = computeStats(wr, files)
	return idx
}

func collectPurposes(root *model.DirectoryNode) map[string]string {
	out := make(map[string]string)
	var visit func(n *model.DirectoryNode)
	visit = func(n *model.DirectoryNode) {
		if n.Purpose != "" {
			out[n.Path] = n.Purpose
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(root)
	if len(out) == 0 {
		return nil
	}
	return out
}

func computeStats(wr *walk.Result, files map[string]*model.FileRecord) model.Stats {
	st := model.Stats{
		TotalFiles:    len(files),
		TotalDirs:     wr.DirCount,
		MarkdownFiles: len(wr.Markdown),
		FullyParsed:   make(map[string]int),
		ListedOnly:    make(map[string]int),
	}
	for _, fr := range files {
		if fr.Parsed {
			st.FullyParsed[fr.Language]++
		} else {
			st.ListedOnly[fr.Language]++
		}
	}
	return st
}

// ResolveImports maps each file to the indexed files its import statements
// reach. Imports that do not land on an indexed file are dropped.
func ResolveImports(files map[string]*model.FileRecord) map[string][]string {
	dirs := make(map[string][]string)
	for p := range files {
		d := path.Dir(p)
		dirs[d] = append(dirs[d], p)
	}

	deps := make(map[string][]string)
	for p, fr := range files {
		var resolved []string
		seen := map[string]struct{}{}
		for _, imp := range fr.Imports {
			for _, target := range resolveImport(p, fr.Language, imp, files, dirs) {
				if _, dup := seen[target]; !dup && target != p {
					seen[target] = struct{}{}
					resolved = append(resolved, target)
				}
			}
		}
		if len(resolved) > 0 {
			sort.Strings(resolved)
			deps[p] = resolved
		}
	}
	if len(deps) == 0 {
		return nil
	}
	return deps
}

func resolveImport(from, language, imp string, files map[string]*model.FileRecord, dirs map[string][]string) []string {
	if language == "go" {
		return resolveGoImport(imp, dirs)
	}

	dir := path.Dir(from)
	var bases []string
	switch {
	case strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../"):
		bases = []string{path.Join(dir, imp)}
	case language == "python":
		// Dotted module paths, probed from the file's package and the root.
		rel := strings.ReplaceAll(strings.TrimLeft(imp, "."), ".", "/")
		bases = []string{path.Join(dir, rel), rel}
	default:
		bases = []string{path.Join(dir, imp), imp}
	}

	for _, base := range bases {
		base = path.Clean(base)
		for _, ext := range probeExts {
			if _, ok := files[base+ext]; ok {
				return []string{base + ext}
			}
		}
		for _, ext := range probeExts[2:] {
			if _, ok := files[base+"/index"+ext]; ok {
				return []string{base + "/index" + ext}
			}
		}
	}
	return nil
}

// resolveGoImport matches the import path's trailing components against
// indexed directories. A match pulls in the whole package.
func resolveGoImport(imp string, dirs map[string][]string) []string {
	var best string
	for dir := range dirs {
		if dir == "." {
			continue
		}
		if imp == dir || strings.HasSuffix(imp, "/"+dir) {
			if len(dir) > len(best) {
				best = dir
			}
		}
	}
	if best == "" {
		return nil
	}
	var out []string
	for _, p := range dirs[best] {
		if strings.HasSuffix(p, ".go") {
			out = append(out, p)
		}
	}
	return out
}

// Compress serializes idx, degrading it in a fixed order until it fits
// within maxBytes: first the tree is cut to treeKeep lines, then listed-only
// file records are dropped in path order. Parsed symbol data is never
// sacrificed, so the result may still exceed the budget.
func Compress(idx *model.Index, maxBytes, treeKeep int) ([]byte, error) {
	data, err := marshal(idx)
	if err != nil || maxBytes <= 0 || len(data) <= maxBytes {
		return data, err
	}

	if len(idx.Tree) > treeKeep {
		idx.Tree = idx.Tree[:treeKeep]
		idx.TreeTruncated = true
		if data, err = marshal(idx); err != nil || len(data) <= maxBytes {
			return data, err
		}
	}

	var listed []string
	for p, fr := range idx.Files {
		if !fr.Parsed {
			listed = append(listed, p)
		}
	}
	sort.Strings(listed)
	for len(listed) > 0 && len(data) > maxBytes {
		n := dropBatch(len(data), maxBytes, len(listed))
		for _, p := range listed[:n] {
			delete(idx.Files, p)
			idx.DroppedListed++
		}
		listed = listed[n:]
		if data, err = marshal(idx); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// dropBatch sizes the next batch of record drops from how far over budget
// the document is, so compression needs few marshal passes.
func dropBatch(size, maxBytes, remaining int) int {
	over := size - maxBytes
	perRecord := size / (remaining + 1)
	if perRecord == 0 {
		perRecord = 1
	}
	n := over/perRecord + 1
	if n > remaining {
		n = remaining
	}
	return n
}

func marshal(idx *model.Index) ([]byte, error) {
	return json.MarshalIndent(idx, "", "  ")
}
