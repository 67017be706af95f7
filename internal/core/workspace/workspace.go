// Package workspace owns one editing session: the loaded trees, the module
// index, the modification tracker and the resolver and inference engine that
// share it.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"resolvels/internal/core/config"
	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/core/ports"
	"resolvels/internal/core/watcher"
	"resolvels/internal/engine/infer"
	"resolvels/internal/engine/memo"
	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/resolve"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/observability"
)

// SExprSuffix names the sidecar an external RESOLVE parser writes next to a
// module file: Foo.resolve is read from Foo.resolve.sexp.
const SExprSuffix = ".sexp"

type Workspace struct {
	ID     string
	Config *config.Config

	index    *modindex.MemoryIndex
	parser   ports.TreeParser
	store    ports.IndexStore
	tracker  *memo.Tracker
	resolver *resolve.Resolver
	engine   *infer.Engine
	logger   *slog.Logger

	mu    sync.RWMutex
	trees map[string]*syntax.Tree

	watchMu sync.Mutex
	watcher *watcher.Watcher
}

var (
	_ resolve.TreeSource = (*Workspace)(nil)
	_ ports.QueryService = (*Workspace)(nil)
)

type Option func(*Workspace)

// WithParser sets the parser used to load module files on demand.
func WithParser(p ports.TreeParser) Option {
	return func(w *Workspace) { w.parser = p }
}

// WithStore persists the module index between runs.
func WithStore(s ports.IndexStore) Option {
	return func(w *Workspace) { w.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// New builds a workspace over cfg's library roots. The index is empty until
// Open.
func New(cfg *config.Config, opts ...Option) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	index, err := modindex.NewMemoryIndex(cfg.Library.Roots, modindex.Options{
		Extensions:   cfg.Library.Extensions,
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: cfg.Exclude.Files,
	})
	if err != nil {
		return nil, domainerr.AddContext(domainerr.Wrap(err, domainerr.CodeValidationError, "build module index"), domainerr.CtxOperation, "new_workspace")
	}

	w := &Workspace{
		ID:      uuid.NewString(),
		Config:  cfg,
		index:   index,
		tracker: memo.NewTracker(),
		trees:   make(map[string]*syntax.Tree),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("workspace", w.ID)

	w.resolver = resolve.New(index, w, w.tracker, cfg.Cache.MaxEntries)
	w.resolver.SetLogger(w.logger)
	w.engine = infer.New(w.resolver, nil, cfg.Cache.MaxEntries)
	w.engine.SetLogger(w.logger)
	return w, nil
}

// Open fills the index, from the store when it holds a snapshot of the same
// roots and by scanning otherwise.
func (w *Workspace) Open(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "workspace.Open")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	if w.store != nil {
		ok, err := w.store.WarmStart(w.index)
		if err != nil {
			w.logger.Warn("index warm start failed", "error", err)
		}
		if ok {
			w.logger.Info("module index loaded from store", "entries", w.index.Len())
			w.InvalidateAll()
			return nil
		}
	}
	return w.Refresh(ctx)
}

// Refresh rescans the library roots and invalidates every cached result.
func (w *Workspace) Refresh(ctx context.Context) error {
	_, span := observability.Tracer.Start(ctx, "workspace.Refresh")
	defer span.End()

	if err := w.index.Scan(); err != nil {
		return domainerr.AddContext(domainerr.Wrap(err, domainerr.CodeIndexUnavailable, "scan library roots"), domainerr.CtxOperation, "refresh")
	}
	w.InvalidateAll()
	if w.store != nil {
		if err := w.store.SaveIndex(w.index); err != nil {
			w.logger.Warn("index snapshot not saved", "error", err)
		}
	}
	w.logger.Debug("module index refreshed", "entries", w.index.Len())
	return nil
}

func (w *Workspace) Index() *modindex.MemoryIndex { return w.index }

func (w *Workspace) Resolver() *resolve.Resolver { return w.resolver }

func (w *Workspace) Engine() *infer.Engine { return w.engine }

// Stamp returns the current modification stamp.
func (w *Workspace) Stamp() memo.Stamp { return w.tracker.Current() }

// InvalidateAll bumps the modification tracker. Every cached resolution and
// inference result becomes stale.
func (w *Workspace) InvalidateAll() memo.Stamp {
	s := w.tracker.Bump()
	observability.ModificationCount.Set(float64(s))
	return s
}

// Update installs tree under its path, replacing any earlier version, and
// preloads the module files its uses clauses and facilities name.
func (w *Workspace) Update(tree *syntax.Tree) {
	if tree == nil {
		return
	}
	w.mu.Lock()
	w.trees[tree.Path()] = tree
	w.mu.Unlock()
	w.preloadImports(tree)
	w.InvalidateAll()
}

// preloadImports reads the trees of the files tree imports so member
// lookups through them find the trees in memory. Files that cannot be read
// are skipped; Tree still tries again on demand.
func (w *Workspace) preloadImports(tree *syntax.Tree) {
	var literals []syntax.Node
	literals = append(literals, tree.Find(syntax.KindUsesString)...)
	literals = append(literals, tree.Find(syntax.KindModuleSpec)...)
	for _, lit := range literals {
		res := w.resolver.Resolve(lit)
		if !res.IsFile() {
			continue
		}
		w.mu.RLock()
		_, loaded := w.trees[res.Path]
		w.mu.RUnlock()
		if loaded {
			continue
		}
		t, err := w.readTree(res.Path)
		if err != nil {
			w.logger.Debug("import not preloaded", "path", res.Path, "error", err)
			continue
		}
		w.mu.Lock()
		if _, ok := w.trees[res.Path]; !ok {
			w.trees[res.Path] = t
		}
		w.mu.Unlock()
	}
}

// Remove drops the tree loaded for path.
func (w *Workspace) Remove(path string) {
	w.mu.Lock()
	_, ok := w.trees[path]
	delete(w.trees, path)
	w.mu.Unlock()
	if ok {
		w.InvalidateAll()
	}
}

// Paths lists the paths with a loaded tree.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.trees))
	for p := range w.trees {
		out = append(out, p)
	}
	return out
}

// Tree returns the tree for path, loading it on first use when a parser or
// an S-expression sidecar can supply it.
func (w *Workspace) Tree(path string) (*syntax.Tree, bool) {
	w.mu.RLock()
	t, ok := w.trees[path]
	w.mu.RUnlock()
	if ok {
		return t, true
	}
	t, err := w.readTree(path)
	if err != nil {
		w.logger.Debug("tree not loaded", "path", path, "error", err)
		return nil, false
	}
	w.mu.Lock()
	if existing, ok := w.trees[path]; ok {
		t = existing
	} else {
		w.trees[path] = t
	}
	w.mu.Unlock()
	return t, true
}

// Load reads and parses path and installs the result.
func (w *Workspace) Load(path string) (*syntax.Tree, error) {
	t, err := w.readTree(path)
	if err != nil {
		return nil, err
	}
	w.Update(t)
	return t, nil
}

func (w *Workspace) readTree(path string) (*syntax.Tree, error) {
	if w.parser != nil && w.parser.Supports(path) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, notFound(path, err)
		}
		return w.parser.Parse(path, src)
	}
	src, err := os.ReadFile(path + SExprSuffix)
	if err != nil {
		return nil, notFound(path, err)
	}
	t, err := syntax.ReadSExpr(path, string(src))
	if err != nil {
		return nil, domainerr.AddContext(domainerr.Wrap(err, domainerr.CodeParseError, "read tree"), domainerr.CtxPath, path+SExprSuffix)
	}
	return t, nil
}

func notFound(path string, err error) error {
	code := domainerr.CodeInternal
	if os.IsNotExist(err) {
		code = domainerr.CodeNotFound
	}
	return domainerr.AddContext(domainerr.Wrap(err, code, "read source"), domainerr.CtxPath, path)
}

// HandleChanges reloads or drops the loaded trees among paths and rescans
// the index.
func (w *Workspace) HandleChanges(paths []string) {
	w.mu.Lock()
	for _, p := range paths {
		delete(w.trees, p)
		delete(w.trees, strings.TrimSuffix(p, SExprSuffix))
	}
	w.mu.Unlock()

	if err := w.Refresh(context.Background()); err != nil {
		w.logger.Error("refresh after change failed", "error", err, "paths", len(paths))
		return
	}
	w.logger.Info("library changed", "paths", len(paths), "stamp", uint64(w.Stamp()))
}

// StartWatcher watches the library roots and calls HandleChanges on
// debounced batches of changes.
func (w *Workspace) StartWatcher() error {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()
	if w.watcher != nil {
		return nil
	}
	cfg := w.Config
	wt, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files, w.HandleChanges)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	wt.SetLogger(w.logger)
	wt.SetExtensions(append(append([]string(nil), cfg.Library.Extensions...), SExprSuffix))
	wt.SetRateLimit(cfg.Watch.MaxRefreshPerSecond, cfg.Watch.Burst)
	if err := wt.Watch(w.index.Roots()); err != nil {
		wt.Close()
		return fmt.Errorf("watch library roots: %w", err)
	}
	w.watcher = wt
	return nil
}

// Close stops the watcher and the index store.
func (w *Workspace) Close() error {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()
	var firstErr error
	if w.watcher != nil {
		firstErr = w.watcher.Close()
		w.watcher = nil
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
