// Package walk discovers the files and directories an index covers. It
// prunes ignored and hidden paths while descending and renders a
// depth-capped tree of what remains.
package walk

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"archmap/internal/ignore"
	"archmap/internal/lang"
	"archmap/internal/model"
)

// importantFiles always appear in the rendered tree even though they are
// not parsed as code.
var importantFiles = map[string]struct{}{
	"README.md": {}, "README.rst": {}, "LICENSE": {}, "Makefile": {},
	"Dockerfile": {}, "docker-compose.yml": {}, "go.mod": {},
	"package.json": {}, "pyproject.toml": {}, "setup.py": {},
	"requirements.txt": {}, "Cargo.toml": {},
}

type Options struct {
	MaxTreeDepth int
	MaxFiles     int
}

// Entry is one discovered code file, path relative to the walk root in
// slash form.
type Entry struct {
	Path     string
	Language string
	Size     int64
	ModTime  time.Time
}

type Result struct {
	Root      *model.DirectoryNode
	Files     []Entry
	Markdown  []string
	Tree      []string
	TreeCut   bool
	DirFiles  map[string][]string
	DirCount  int
	Truncated bool
	Errors    []model.WalkError
}

// Walk traverses root and collects code files, markdown files and the
// directory structure. Traversal stops once opts.MaxFiles code files have
// been found.
func Walk(root string, filter *ignore.Filter, opts Options) (*Result, error) {
	res := &Result{
		Root:     &model.DirectoryNode{Path: "."},
		DirFiles: make(map[string][]string),
		DirCount: 1,
	}
	nodes := map[string]*model.DirectoryNode{".": res.Root}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, model.WalkError{Path: p, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		base := filepath.Base(p)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(base, ".") || filter.ExcludeDir(rel) {
				return fs.SkipDir
			}
			node := &model.DirectoryNode{Path: rel}
			nodes[rel] = node
			parent := nodes[parentDir(rel)]
			parent.Children = append(parent.Children, node)
			res.DirCount++
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if _, important := importantFiles[base]; !important {
			if strings.HasPrefix(base, ".") || filter.ExcludeFile(rel) {
				return nil
			}
		}

		res.DirFiles[parentDir(rel)] = append(res.DirFiles[parentDir(rel)], base)

		if lang.IsMarkdown(p) {
			res.Markdown = append(res.Markdown, rel)
		}
		if lang.IsCode(p) {
			entry := Entry{Path: rel, Language: lang.Name(p)}
			if info, ierr := d.Info(); ierr == nil {
				entry.Size = info.Size()
				entry.ModTime = info.ModTime()
			}
			res.Files = append(res.Files, entry)
			if opts.MaxFiles > 0 && len(res.Files) >= opts.MaxFiles {
				res.Truncated = true
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	sort.Strings(res.Markdown)
	countCodeFiles(res)
	res.Tree, res.TreeCut = renderTree(res.Root, res.DirFiles, opts.MaxTreeDepth)
	return res, nil
}

func parentDir(rel string) string {
	dir := path.Dir(rel)
	if dir == "" {
		return "."
	}
	return dir
}

// countCodeFiles fills FileCount on every directory node with the number
// of code files at or below it.
func countCodeFiles(res *Result) {
	nodes := map[string]*model.DirectoryNode{}
	var index func(n *model.DirectoryNode)
	index = func(n *model.DirectoryNode) {
		nodes[n.Path] = n
		for _, c := range n.Children {
			index(c)
		}
	}
	index(res.Root)

	for _, f := range res.Files {
		dir := parentDir(f.Path)
		for {
			if n, ok := nodes[dir]; ok {
				n.FileCount++
			}
			if dir == "." {
				break
			}
			dir = parentDir(dir)
		}
	}
}

func renderTree(root *model.DirectoryNode, dirFiles map[string][]string, maxDepth int) ([]string, bool) {
	lines := []string{"."}
	cut := false

	var render func(n *model.DirectoryNode, prefix string, depth int)
	render = func(n *model.DirectoryNode, prefix string, depth int) {
		dirs := append([]*model.DirectoryNode(nil), n.Children...)
		sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })

		var files []string
		for _, name := range dirFiles[n.Path] {
			if _, ok := importantFiles[name]; ok {
				files = append(files, name)
			}
		}
		sort.Strings(files)

		total := len(dirs) + len(files)
		if total == 0 {
			return
		}
		if depth >= maxDepth {
			lines = append(lines, prefix+"└── ...")
			cut = true
			return
		}

		i := 0
		connector := func() (string, string) {
			i++
			if i == total {
				return "└── ", "    "
			}
			return "├── ", "│   "
		}
		for _, d := range dirs {
			conn, ext := connector()
			label := path.Base(d.Path) + "/"
			if d.FileCount > 0 {
				label += " (" + strconv.Itoa(d.FileCount) + " files)"
			}
			lines = append(lines, prefix+conn+label)
			render(d, prefix+ext, depth+1)
		}
		for _, f := range files {
			conn, _ := connector()
			lines = append(lines, prefix+conn+f)
		}
	}
	render(root, "", 0)
	return lines, cut
}
