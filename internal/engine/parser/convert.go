// Package parser turns source files into syntax trees using tree-sitter
// grammars and a Profile that maps grammar node types onto syntax kinds.
package parser

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/observability"
	"resolvels/internal/shared/util"
)

// Registry selects a profile by file extension and converts sources with
// pooled parsers. Safe for concurrent use.
type Registry struct {
	loader *GrammarLoader
	logger *slog.Logger

	mu       sync.RWMutex
	profiles map[string]*Profile
	byExt    map[string]*Profile
}

// NewRegistry creates a registry holding the given profiles. Later profiles
// win on conflicting extensions.
func NewRegistry(profiles ...*Profile) (*Registry, error) {
	r := &Registry{
		loader:   NewGrammarLoader(),
		logger:   slog.Default().With("component", "parser"),
		profiles: make(map[string]*Profile),
		byExt:    make(map[string]*Profile),
	}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l.With("component", "parser")
	}
}

// PoolStats reports the parser pools the registry has used.
func (r *Registry) PoolStats() []PoolStats { return r.loader.Stats() }

func (r *Registry) Register(p *Profile) error {
	if p == nil || p.Name == "" {
		return domainerr.New(domainerr.CodeValidationError, "profile needs a name")
	}
	if !HasGrammar(p.Grammar) {
		return profileError(p.Name, domainerr.Newf(domainerr.CodeNotSupported, "grammar %q is not built in", p.Grammar))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
	for _, ext := range p.Extensions {
		r.byExt[ext] = p
	}
	return nil
}

// Profile returns the profile registered under name.
func (r *Registry) Profile(name string) (*Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	return p, ok
}

// ForPath returns the profile whose extensions cover path.
func (r *Registry) ForPath(path string) (*Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	return p, ok
}

// Supports reports whether a profile covers path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return util.SortedStringKeys(r.profiles)
}

// Parse converts src using the profile registered for path's extension.
func (r *Registry) Parse(path string, src []byte) (*syntax.Tree, error) {
	p, ok := r.ForPath(path)
	if !ok {
		return nil, domainerr.AddContext(
			domainerr.New(domainerr.CodeNotSupported, "no profile for file extension"),
			domainerr.CtxPath, path)
	}
	return r.ParseWith(p, path, src)
}

// ParseWith converts src using profile p. Sources with syntax errors still
// produce a tree; error regions become Other nodes.
func (r *Registry) ParseWith(p *Profile, path string, src []byte) (*syntax.Tree, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	}()

	pool, err := r.loader.Pool(p.Grammar)
	if err != nil {
		return nil, domainerr.AddContext(err, domainerr.CtxPath, path)
	}
	sp := pool.Get()
	defer pool.Put(sp)

	ts := sp.Parse(src, nil)
	if ts == nil {
		return nil, domainerr.AddContext(
			domainerr.AddContext(domainerr.New(domainerr.CodeParseError, "tree-sitter returned no tree"), domainerr.CtxPath, path),
			domainerr.CtxProfile, p.Name)
	}
	defer ts.Close()

	root := ts.RootNode()
	if root.HasError() {
		r.logger.Debug("source has syntax errors", "path", path, "profile", p.Name)
	}
	tree, err := Convert(p, path, string(src), root)
	if err != nil {
		return nil, domainerr.AddContext(domainerr.Wrap(err, domainerr.CodeParseError, "convert tree"), domainerr.CtxPath, path)
	}
	return tree, nil
}

// Convert copies a tree-sitter tree into a syntax tree over src.
func Convert(p *Profile, path, src string, root *sitter.Node) (*syntax.Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("nil root")
	}
	c := converter{profile: p, b: syntax.NewSourceBuilder(path, src), srcLen: len(src)}
	kind := c.kindOf(root, "")
	if kind.IsLeafKind() {
		// The root must be able to hold children.
		kind = syntax.KindFile
	}
	c.node(root, kind)
	return c.b.Finish()
}

type converter struct {
	profile *Profile
	b       *syntax.Builder
	srcLen  int
}

func (c *converter) span(n *sitter.Node) (int, int) {
	start, end := int(n.StartByte()), int(n.EndByte())
	if end > c.srcLen {
		end = c.srcLen
	}
	if start > end {
		start = end
	}
	return start, end
}

func (c *converter) kindOf(n *sitter.Node, field string) syntax.Kind {
	if field != "" {
		if k, ok := c.profile.Fields[field]; ok {
			return k
		}
	}
	if !n.IsNamed() {
		if n.Kind() == "." {
			return syntax.KindDot
		}
		return syntax.KindToken
	}
	if k, ok := c.profile.Kinds[n.Kind()]; ok {
		return k
	}
	if n.ChildCount() == 0 {
		return syntax.KindToken
	}
	return syntax.KindOther
}

func (c *converter) node(n *sitter.Node, kind syntax.Kind) {
	start, end := c.span(n)
	count := n.ChildCount()

	switch {
	case kind.IsLeafKind():
		c.b.LeafAt(kind, start, end)
	case count == 0 && kind != syntax.KindFile:
		// A leaf standing for a composite reference or declaration.
		c.b.OpenAt(kind, start)
		c.b.LeafAt(syntax.KindIdentifier, start, end)
		c.b.CloseAt(end)
	default:
		c.b.OpenAt(kind, start)
		for i := uint(0); i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			var field string
			if name := n.FieldNameForChild(uint32(i)); name != "" {
				field = n.Kind() + "." + name
			}
			c.node(child, c.kindOf(child, field))
		}
		c.b.CloseAt(end)
	}
}
