// Package engine orchestrates index builds, incremental updates and
// staleness checks over a project root.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"archmap/internal/assemble"
	"archmap/internal/config"
	"archmap/internal/docs"
	"archmap/internal/graph"
	"archmap/internal/ignore"
	"archmap/internal/lang"
	"archmap/internal/model"
	"archmap/internal/purpose"
	"archmap/internal/store"
	"archmap/internal/walk"
)

// ErrTimeout reports that an incremental update exceeded its deadline. The
// persisted index is unchanged when this is returned.
var ErrTimeout = errors.New("engine: update timed out")

type Engine struct {
	root string
	cfg  *config.Config
	log  *slog.Logger

	// updateMu serializes incremental updates so concurrent editor saves
	// cannot interleave their read-modify-write cycles.
	updateMu sync.Mutex
}

// New returns an engine for the project at root. The root must be an
// existing directory.
func New(root string, cfg *config.Config, log *slog.Logger) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("engine: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("engine: root %s is not a directory", abs)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{root: abs, cfg: cfg, log: log}, nil
}

// IndexPath returns where the index document lives on disk.
func (e *Engine) IndexPath() string {
	return filepath.Join(e.root, e.cfg.IndexFile)
}

// filter builds the ignore policy for a scan. The index document itself is
// always excluded so it never indexes or invalidates itself.
func (e *Engine) filter() *ignore.Filter {
	patterns := append([]string(nil), e.cfg.IgnorePatterns...)
	patterns = append(patterns, e.cfg.IndexFile)
	return ignore.New(e.root, patterns)
}

// Load reads the persisted index.
func (e *Engine) Load() (*model.Index, error) {
	return store.Load(e.IndexPath())
}

// BuildFull scans the whole project and writes a fresh index, replacing any
// existing one.
func (e *Engine) BuildFull(ctx context.Context) (*model.Index, error) {
	start := time.Now()
	filter := e.filter()
	wr, err := walk.Walk(e.root, filter, walk.Options{
		MaxTreeDepth: e.cfg.MaxTreeDepth,
		MaxFiles:     e.cfg.MaxFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: walk %s: %w", e.root, err)
	}
	if wr.Truncated {
		e.log.Warn("file cap reached, index is partial",
			"max_files", e.cfg.MaxFiles)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	purpose.Annotate(wr.Root, wr.DirFiles)
	files := e.extractAll(ctx, wr.Files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := assemble.Build(e.root, wr, files, docs.Scan(e.root, wr.Markdown))
	graph.Resolve(idx.Files, idx.Deps)

	data, err := assemble.Compress(idx, e.cfg.MaxIndexBytes, e.cfg.TreeKeep)
	if err != nil {
		return nil, fmt.Errorf("engine: serialize index: %w", err)
	}
	if err := store.Write(e.IndexPath(), data); err != nil {
		return nil, err
	}
	e.log.Info("full index built",
		"files", idx.Stats.TotalFiles,
		"dirs", idx.Stats.TotalDirs,
		"bytes", len(data),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return idx, nil
}

// extractAll runs the per-file extractors over a worker pool sized to the
// machine.
func (e *Engine) extractAll(ctx context.Context, entries []walk.Entry) map[string]*model.FileRecord {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan walk.Entry)
	results := make(chan *model.FileRecord)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- e.extractOne(entry)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, entry := range entries {
			select {
			case jobs <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	files := make(map[string]*model.FileRecord, len(entries))
	for fr := range results {
		files[fr.Path] = fr
	}
	return files
}

// extractOne produces the record for a single code file. Files that cannot
// be parsed stay in the index as listed-only entries.
func (e *Engine) extractOne(entry walk.Entry) *model.FileRecord {
	fr := &model.FileRecord{
		Path:     entry.Path,
		Language: entry.Language,
		Purpose:  purpose.File(entry.Path),
	}
	if entry.Size > e.cfg.MaxFileBytes {
		fr.ParseError = fmt.Sprintf("file exceeds %d bytes", e.cfg.MaxFileBytes)
		return fr
	}
	ext := strings.ToLower(filepath.Ext(entry.Path))
	extractor, ok := lang.ForExtension(ext)
	if !ok {
		return fr
	}
	src, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(entry.Path)))
	if err != nil {
		fr.ParseError = err.Error()
		return fr
	}
	syms, err := extractor.Extract(src)
	if err != nil {
		fr.ParseError = err.Error()
		e.log.Debug("extraction failed", "path", entry.Path, "err", err)
		return fr
	}
	if !syms.HasSymbols() {
		return fr
	}
	fr.Parsed = true
	fr.Functions = syms.Functions
	fr.Classes = syms.Classes
	fr.Constants = syms.Constants
	fr.Imports = syms.Imports
	return fr
}

// Update patches the index for a single edited, created or deleted file. It
// is bounded by the configured update timeout; on timeout or any failure the
// index on disk keeps its previous contents. With no index present it falls
// back to a full build.
func (e *Engine) Update(ctx context.Context, edited string) error {
	e.updateMu.Lock()
	defer e.updateMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.UpdateTimeout.Std())
	defer cancel()

	idx, err := store.Load(e.IndexPath())
	if errors.Is(err, store.ErrNoIndex) {
		e.log.Info("no index to update, building from scratch")
		_, err = e.BuildFull(ctx)
		return err
	}
	if err != nil {
		return err
	}

	rel, err := e.relPath(edited)
	if err != nil {
		return err
	}
	filter := e.filter()
	tracked := e.tracks(filter, rel)
	_, known := idx.Files[rel]
	if !tracked && !known {
		return nil
	}

	if err := e.patch(idx, rel, tracked); err != nil {
		return err
	}
	if err := timeoutErr(ctx); err != nil {
		return err
	}

	idx.BuiltAt = time.Now().UTC()
	refreshStats(idx)
	data, err := assemble.Compress(idx, e.cfg.MaxIndexBytes, e.cfg.TreeKeep)
	if err != nil {
		return fmt.Errorf("engine: serialize index: %w", err)
	}
	if err := timeoutErr(ctx); err != nil {
		return err
	}
	if err := store.Write(e.IndexPath(), data); err != nil {
		return err
	}
	e.log.Info("index updated", "path", rel, "tracked", tracked)
	return nil
}

// patch applies the single-file change to the in-memory index.
func (e *Engine) patch(idx *model.Index, rel string, tracked bool) error {
	abs := filepath.Join(e.root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	switch {
	case err != nil || !tracked:
		graph.RemoveFile(idx.Files, rel)
		idx.Deps = assemble.ResolveImports(idx.Files)
		return nil
	case info.IsDir():
		return fmt.Errorf("engine: %s is a directory", rel)
	}

	idx.Files[rel] = e.extractOne(walk.Entry{
		Path:     rel,
		Language: lang.Name(rel),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	})
	idx.Deps = assemble.ResolveImports(idx.Files)
	graph.PatchFile(idx.Files, idx.Deps, rel)
	return nil
}

// tracks reports whether a path belongs in the index at all.
func (e *Engine) tracks(filter *ignore.Filter, rel string) bool {
	if !lang.IsCode(rel) {
		return false
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	for dir != "." && dir != "/" && dir != "" {
		if filter.ExcludeDir(dir) || ignore.BuiltinDir(filepath.Base(dir)) {
			return false
		}
		dir = filepath.ToSlash(filepath.Dir(dir))
	}
	return !filter.ExcludeFile(rel)
}

func (e *Engine) relPath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	rel, err := filepath.Rel(e.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("engine: %s is outside the project root", p)
	}
	return filepath.ToSlash(rel), nil
}

// CheckStaleness reports whether the persisted index has drifted from the
// tree beyond the configured threshold, or aged out entirely. A missing
// index is always stale. The scan is bounded by the staleness timeout and
// reports stale when it cannot finish in time.
func (e *Engine) CheckStaleness(ctx context.Context) (bool, error) {
	idx, err := store.Load(e.IndexPath())
	if errors.Is(err, store.ErrNoIndex) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if age := time.Since(idx.BuiltAt); age > e.cfg.MaxIndexAge.Std() {
		e.log.Debug("index aged out", "age", age.Round(time.Second))
		return true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StalenessTimeout.Std())
	defer cancel()

	type scan struct {
		wr  *walk.Result
		err error
	}
	done := make(chan scan, 1)
	go func() {
		filter := e.filter()
		wr, werr := walk.Walk(e.root, filter, walk.Options{
			MaxTreeDepth: e.cfg.MaxTreeDepth,
			MaxFiles:     e.cfg.MaxFiles,
		})
		done <- scan{wr: wr, err: werr}
	}()

	var res scan
	select {
	case res = <-done:
	case <-ctx.Done():
		e.log.Debug("staleness scan timed out, assuming stale")
		return true, nil
	}
	if res.err != nil {
		return false, res.err
	}

	divergence := countDivergence(idx, res.wr)
	e.log.Debug("staleness check", "divergence", divergence,
		"threshold", e.cfg.StalenessThreshold)
	return divergence > e.cfg.StalenessThreshold, nil
}

// countDivergence counts tracked files added, removed or modified since the
// index was built.
func countDivergence(idx *model.Index, wr *walk.Result) int {
	onDisk := make(map[string]walk.Entry, len(wr.Files))
	for _, f := range wr.Files {
		onDisk[f.Path] = f
	}
	n := 0
	for p, f := range onDisk {
		if _, ok := idx.Files[p]; !ok {
			n++
		} else if f.ModTime.After(idx.BuiltAt) {
			n++
		}
	}
	for p := range idx.Files {
		if _, ok := onDisk[p]; !ok {
			n++
		}
	}
	return n
}

func refreshStats(idx *model.Index) {
	idx.Stats.TotalFiles = len(idx.Files)
	idx.Stats.FullyParsed = make(map[string]int)
	idx.Stats.ListedOnly = make(map[string]int)
	for _, fr := range idx.Files {
		if fr.Parsed {
			idx.Stats.FullyParsed[fr.Language]++
		} else {
			idx.Stats.ListedOnly[fr.Language]++
		}
	}
}

func timeoutErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}
	return nil
}
