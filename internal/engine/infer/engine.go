// Package infer computes the static type of programming expressions and the
// meta-type expression of math expressions.
package infer

import (
	"log/slog"

	"resolvels/internal/engine/memo"
	"resolvels/internal/engine/resolve"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/observability"
)

// Declarations supplies the declared type and meta-type of declaration
// nodes. Implementations may call back into the query for inferred parts.
type Declarations interface {
	DeclaredType(q *Query, decl syntax.Node) syntax.Node
	MetaType(q *Query, decl syntax.Node) syntax.Node
}

// Engine answers type and meta-type queries. Context-free results are
// cached per node under the resolver's modification tracker. Safe for
// concurrent use; each query owns its recursion guards.
type Engine struct {
	resolver *resolve.Resolver
	decls    Declarations
	types    *memo.Cache[syntax.Node, syntax.Node]
	metas    *memo.Cache[syntax.Node, syntax.Node]
	logger   *slog.Logger
}

// New creates an engine over r. A nil decls uses the structural rules in
// StructuralDeclarations.
func New(r *resolve.Resolver, decls Declarations, capacity int) *Engine {
	if decls == nil {
		decls = StructuralDeclarations{}
	}
	return &Engine{
		resolver: r,
		decls:    decls,
		types:    memo.NewCache[syntax.Node, syntax.Node]("type", capacity),
		metas:    memo.NewCache[syntax.Node, syntax.Node]("metatype", capacity),
		logger:   slog.Default().With("component", "infer"),
	}
}

func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l.With("component", "infer")
	}
}

func (e *Engine) Resolver() *resolve.Resolver { return e.resolver }

// TypeOf returns the static type node of expr, or the zero node when none
// is known. ctx may be nil.
func (e *Engine) TypeOf(expr syntax.Node, ctx *Context) syntax.Node {
	return e.NewQuery(ctx).TypeOf(expr)
}

// MetaTypeOf returns the meta-type expression of a math expression or math
// declaration, or the zero node. ctx may be nil.
func (e *Engine) MetaTypeOf(expr syntax.Node, ctx *Context) syntax.Node {
	return e.NewQuery(ctx).MetaTypeOf(expr)
}

// Query is one top-level inference call and everything it computes on the
// way. It is not safe for concurrent use.
type Query struct {
	e         *Engine
	ctx       *Context
	stamp     memo.Stamp
	typeGuard *memo.Guard[syntax.Node]
	metaGuard *memo.Guard[syntax.Node]
}

func (e *Engine) NewQuery(ctx *Context) *Query {
	return &Query{
		e:         e,
		ctx:       ctx,
		stamp:     e.resolver.Tracker().Current(),
		typeGuard: memo.NewGuard[syntax.Node](),
		metaGuard: memo.NewGuard[syntax.Node](),
	}
}

func (q *Query) Context() *Context { return q.ctx }

func (q *Query) Resolve(n syntax.Node) resolve.Result { return q.e.resolver.Resolve(n) }

// TypeOf is the static type of n within this query.
func (q *Query) TypeOf(n syntax.Node) syntax.Node {
	n = subject(n)
	switch k := n.Kind(); {
	case k == syntax.KindReferenceExp || k == syntax.KindTypeReferenceExp:
		return q.memoized("type", q.e.types, q.typeGuard, n, q.referenceType)
	case k == syntax.KindSelectorExp:
		return q.TypeOf(lastElement(n, syntax.Kind.IsExpression))
	case k.IsDeclaration():
		return q.memoized("type", q.e.types, q.typeGuard, n, q.declaredType)
	default:
		return syntax.Node{}
	}
}

// MetaTypeOf is the meta-type expression of n within this query.
func (q *Query) MetaTypeOf(n syntax.Node) syntax.Node {
	n = subject(n)
	switch k := n.Kind(); {
	case k == syntax.KindMathReferenceExp:
		return q.memoized("metatype", q.e.metas, q.metaGuard, n, q.referenceMetaType)
	case k == syntax.KindMathSelectorExp:
		return q.MetaTypeOf(lastElement(n, syntax.Kind.IsMathExpression))
	case k.IsDeclaration():
		return q.memoized("metatype", q.e.metas, q.metaGuard, n, q.declaredMetaType)
	default:
		return syntax.Node{}
	}
}

// memoized runs compute for n under the query's guard. Context-free results
// are read from and written to cache; a result that depended on a
// short-circuited computation is not stored.
func (q *Query) memoized(name string, cache *memo.Cache[syntax.Node, syntax.Node], guard *memo.Guard[syntax.Node], n syntax.Node, compute func(syntax.Node) syntax.Node) syntax.Node {
	useCache := q.ctx == nil
	if useCache {
		if v, ok := cache.Get(n, q.stamp); ok {
			return v
		}
	}
	frame, ok := guard.Enter(n)
	if !ok {
		observability.RecursionSkips.WithLabelValues(name).Inc()
		q.e.logger.Debug("recursive inference skipped", "query", name, "node", n.String())
		return syntax.Node{}
	}
	defer frame.Release()

	v := compute(n)
	if useCache && frame.Cacheable() {
		cache.Put(n, q.stamp, v)
	}
	return v
}

func (q *Query) referenceType(n syntax.Node) syntax.Node {
	res := q.e.resolver.Resolve(n)
	if res.Kind != resolve.ResultDecl {
		return syntax.Node{}
	}
	return q.declaredType(res.Decl)
}

func (q *Query) declaredType(decl syntax.Node) syntax.Node {
	if v, ok := q.ctx.Lookup(decl); ok {
		return v
	}
	return q.e.decls.DeclaredType(q, decl)
}

func (q *Query) referenceMetaType(n syntax.Node) syntax.Node {
	res := q.e.resolver.Resolve(n)
	if res.Kind != resolve.ResultDecl {
		return syntax.Node{}
	}
	return q.declaredMetaType(res.Decl)
}

func (q *Query) declaredMetaType(decl syntax.Node) syntax.Node {
	if v, ok := q.ctx.Lookup(decl); ok {
		return v
	}
	return q.e.decls.MetaType(q, decl)
}

// subject maps an identifier leaf to the reference or declaration it names.
func subject(n syntax.Node) syntax.Node {
	if n.Kind() != syntax.KindIdentifier {
		return n
	}
	if occ := resolve.Occurrence(n); occ.IsValid() {
		return occ
	}
	if p := n.Parent(); p.Kind().IsDeclaration() {
		return p
	}
	return n
}

// lastElement returns the final element of a selector chain, descending
// into nested chains.
func lastElement(chain syntax.Node, isElement func(syntax.Kind) bool) syntax.Node {
	last := chain.LastChildMatching(isElement)
	for last.Kind() == chain.Kind() {
		last = last.LastChildMatching(isElement)
	}
	return last
}
