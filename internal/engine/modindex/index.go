// Package modindex is the file-system collaborator of the resolver: it maps a
// path segment relative to a directory to a source file or a library directory.
package modindex

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"resolvels/internal/shared/observability"

	"github.com/gobwas/glob"
)

type EntryKind uint8

const (
	EntryFile EntryKind = iota + 1
	EntryDir
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is a file or directory known to the index.
type Entry struct {
	Kind EntryKind
	Path string
}

func (e Entry) IsFile() bool { return e.Kind == EntryFile }
func (e Entry) IsDir() bool  { return e.Kind == EntryDir }

// Name returns the base name without a module extension.
func (e Entry) Name() string {
	base := filepath.Base(e.Path)
	if e.Kind == EntryFile {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

// Index resolves path segments. Implementations must be fast and never block
// on I/O during Lookup.
type Index interface {
	// Lookup returns the child of dir named segment. For files the segment may
	// omit a configured module extension.
	Lookup(dir, segment string) (Entry, bool)
	// FindModule returns a module file by bare name anywhere under the roots.
	FindModule(name string) (Entry, bool)
	// Roots returns the library roots searched for uses paths.
	Roots() []string
}

type Options struct {
	Extensions   []string
	ExcludeDirs  []string
	ExcludeFiles []string
}

// MemoryIndex is an in-memory Index over one or more library roots.
type MemoryIndex struct {
	roots        []string
	exts         []string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	mu       sync.RWMutex
	children map[string]map[string]Entry // dir -> base name -> entry
	modules  map[string][]Entry          // module name -> files, sorted by path
	size     int
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex(roots []string, opts Options) (*MemoryIndex, error) {
	ix := &MemoryIndex{
		children: make(map[string]map[string]Entry),
		modules:  make(map[string][]Entry),
	}
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		ix.roots = append(ix.roots, filepath.Clean(root))
	}
	for _, ext := range opts.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ix.exts = append(ix.exts, ext)
	}
	for _, pattern := range opts.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		ix.excludeDirs = append(ix.excludeDirs, g)
	}
	for _, pattern := range opts.ExcludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		ix.excludeFiles = append(ix.excludeFiles, g)
	}
	return ix, nil
}

func (ix *MemoryIndex) Roots() []string {
	return append([]string(nil), ix.roots...)
}

func (ix *MemoryIndex) Extensions() []string {
	return append([]string(nil), ix.exts...)
}

func (ix *MemoryIndex) Lookup(dir, segment string) (Entry, bool) {
	if segment == "" || segment == "." || segment == ".." {
		return Entry{}, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := ix.children[filepath.Clean(dir)]
	if names == nil {
		return Entry{}, false
	}
	if e, ok := names[segment]; ok {
		return e, true
	}
	for _, ext := range ix.exts {
		if e, ok := names[segment+ext]; ok && e.IsFile() {
			return e, true
		}
	}
	return Entry{}, false
}

func (ix *MemoryIndex) FindModule(name string) (Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	files := ix.modules[name]
	if len(files) == 0 {
		return Entry{}, false
	}
	return files[0], true
}

// Stat returns the entry recorded at path.
func (ix *MemoryIndex) Stat(path string) (Entry, bool) {
	path = filepath.Clean(path)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.children[filepath.Dir(path)][filepath.Base(path)]
	return e, ok
}

func (ix *MemoryIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// Entries returns every entry sorted by path.
func (ix *MemoryIndex) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Entry, 0, ix.size)
	for _, names := range ix.children {
		for _, e := range names {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Load replaces the index contents with entries, e.g. from a snapshot.
// Directories implied by entry paths under a root are added as needed.
func (ix *MemoryIndex) Load(entries []Entry) {
	children := make(map[string]map[string]Entry)
	modules := make(map[string][]Entry)
	size := 0
	add := func(e Entry) {
		dir, base := filepath.Dir(e.Path), filepath.Base(e.Path)
		names := children[dir]
		if names == nil {
			names = make(map[string]Entry)
			children[dir] = names
		}
		if _, dup := names[base]; dup {
			return
		}
		names[base] = e
		size++
		if e.IsFile() && ix.isModuleFile(base) {
			modules[e.Name()] = append(modules[e.Name()], e)
		}
	}
	for _, e := range entries {
		e.Path = filepath.Clean(e.Path)
		add(e)
		for dir := filepath.Dir(e.Path); ix.underRoot(dir); dir = filepath.Dir(dir) {
			add(Entry{Kind: EntryDir, Path: dir})
		}
	}
	for name := range modules {
		sort.Slice(modules[name], func(i, j int) bool { return modules[name][i].Path < modules[name][j].Path })
	}

	ix.mu.Lock()
	ix.children = children
	ix.modules = modules
	ix.size = size
	ix.mu.Unlock()
	observability.IndexEntries.Set(float64(size))
}

func (ix *MemoryIndex) underRoot(dir string) bool {
	for _, root := range ix.roots {
		if dir == root {
			return false
		}
		if strings.HasPrefix(dir, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (ix *MemoryIndex) isModuleFile(base string) bool {
	if len(ix.exts) == 0 {
		return true
	}
	ext := filepath.Ext(base)
	for _, want := range ix.exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Scan walks every root and rebuilds the index. Missing roots are skipped
// with a warning.
func (ix *MemoryIndex) Scan() error {
	start := time.Now()
	defer func() {
		observability.IndexRefreshDuration.Observe(time.Since(start).Seconds())
	}()

	var entries []Entry
	for _, root := range ix.roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			slog.Warn("library root unavailable", "root", root, "error", err)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if d.IsDir() {
				if ix.shouldExcludeDir(path) {
					return filepath.SkipDir
				}
				entries = append(entries, Entry{Kind: EntryDir, Path: path})
				return nil
			}
			if ix.shouldExcludeFile(path) {
				return nil
			}
			entries = append(entries, Entry{Kind: EntryFile, Path: path})
			return nil
		})
		if err != nil {
			return err
		}
	}
	ix.Load(entries)
	slog.Debug("module index scanned", "roots", len(ix.roots), "entries", ix.Len(), "duration", time.Since(start))
	return nil
}

// Covers reports whether path lies under one of the index roots.
func (ix *MemoryIndex) Covers(path string) bool {
	path = filepath.Clean(path)
	for _, root := range ix.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (ix *MemoryIndex) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range ix.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (ix *MemoryIndex) shouldExcludeFile(path string) bool {
	base := filepath.Base(path)
	for _, g := range ix.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}
