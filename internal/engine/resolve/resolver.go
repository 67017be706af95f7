package resolve

import (
	"log/slog"

	"resolvels/internal/engine/memo"
	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/observability"
)

// TreeSource hands out the syntax tree of a module file, when one is loaded.
type TreeSource interface {
	Tree(path string) (*syntax.Tree, bool)
}

// Resolver turns reference occurrences into Results. Results are memoized
// per occurrence under the tracker's current stamp. Safe for concurrent use.
type Resolver struct {
	index   modindex.Index
	trees   TreeSource
	tracker *memo.Tracker
	cache   *memo.Cache[syntax.Node, Result]
	logger  *slog.Logger
}

// New creates a resolver. index and trees may be nil, in which case uses
// paths and member lookups into other files stay unresolved.
func New(index modindex.Index, trees TreeSource, tracker *memo.Tracker, capacity int) *Resolver {
	if tracker == nil {
		tracker = memo.NewTracker()
	}
	return &Resolver{
		index:   index,
		trees:   trees,
		tracker: tracker,
		cache:   memo.NewCache[syntax.Node, Result]("resolve", capacity),
		logger:  slog.Default().With("component", "resolve"),
	}
}

// SetLogger replaces the resolver's logger.
func (r *Resolver) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l.With("component", "resolve")
	}
}

func (r *Resolver) Tracker() *memo.Tracker { return r.tracker }

func (r *Resolver) Index() modindex.Index { return r.index }

// Tree returns the loaded tree for a module file.
func (r *Resolver) Tree(path string) (*syntax.Tree, bool) {
	if r.trees == nil || path == "" {
		return nil, false
	}
	return r.trees.Tree(path)
}

// session carries the recursion guard of one top-level Resolve call.
type session struct {
	guard *memo.Guard[syntax.Node]
	stamp memo.Stamp
}

func (r *Resolver) newSession() *session {
	return &session{guard: memo.NewGuard[syntax.Node](), stamp: r.tracker.Current()}
}

// Resolve returns the target of the reference occurrence at n. n may also be
// an identifier leaf of a reference. Anything else is Unresolved.
func (r *Resolver) Resolve(n syntax.Node) Result {
	return r.resolve(r.newSession(), n)
}

func (r *Resolver) resolve(s *session, n syntax.Node) Result {
	if n.Kind() == syntax.KindIdentifier {
		if q := qualifierOf(n.Parent()); q == n {
			return r.resolveQualifier(s, n.Parent())
		}
	}
	occ := Occurrence(n)
	kind := KindOf(occ)
	if kind == RefNone {
		return Unresolved()
	}

	if res, ok := r.cache.Get(occ, s.stamp); ok {
		return res
	}
	frame, ok := s.guard.Enter(occ)
	if !ok {
		r.logger.Debug("re-entrant resolution skipped", "node", occ.String())
		return Unresolved()
	}
	defer frame.Release()

	res := r.compute(s, occ, kind)
	if frame.Cacheable() {
		r.cache.Put(occ, s.stamp, res)
	}

	outcome := "resolved"
	if !res.IsResolved() {
		outcome = "unresolved"
		r.logger.Debug("unresolved reference", "kind", kind.String(), "text", occ.Text(), "path", occ.Tree().Path())
	}
	observability.ResolveTotal.WithLabelValues(kind.String(), outcome).Inc()
	return res
}

func (r *Resolver) compute(s *session, occ syntax.Node, kind RefKind) Result {
	switch kind {
	case RefValue, RefType, RefMath:
		return r.resolveName(s, occ, kind)
	case RefModule:
		return r.resolveModule(s, occ)
	case RefLibrary:
		return r.resolveLibrary(occ)
	case RefUses:
		return r.resolveUses(occ)
	default:
		return Unresolved()
	}
}

// resolveName handles value, type and math references, qualified or not.
func (r *Resolver) resolveName(s *session, occ syntax.Node, kind RefKind) Result {
	name := referenceName(occ)
	if name == "" {
		return Unresolved()
	}
	if qualifierOf(occ).IsValid() {
		return r.memberOf(s, r.resolveQualifier(s, occ), name)
	}
	if prev := previousElement(occ); prev.IsValid() {
		return r.memberOf(s, r.resolve(s, prev), name)
	}
	return r.lookup(occ, name, acceptFor(kind))
}

// resolveQualifier resolves the module-like qualifier of a qualified
// reference such as Stack_Fac.Stack.
func (r *Resolver) resolveQualifier(s *session, occ syntax.Node) Result {
	q := qualifierOf(occ)
	if !q.IsValid() {
		return Unresolved()
	}
	return r.lookup(occ, q.Text(), isQualifierDecl)
}

// lookup walks the scope at place for a declaration named name.
func (r *Resolver) lookup(place syntax.Node, name string, accept func(syntax.Kind) bool) Result {
	st := VisibleDeclarations(place, func(n syntax.Node) Step {
		if n.Kind().IsDeclaration() && accept(n.Kind()) && DeclName(n) == name {
			return Stop(Declaration(n))
		}
		return Continue()
	})
	if st.Stopped() {
		return st.Result()
	}
	return Unresolved()
}

func acceptFor(kind RefKind) func(syntax.Kind) bool {
	switch kind {
	case RefMath:
		return func(k syntax.Kind) bool {
			return k != syntax.KindVarDef && k != syntax.KindOperationDecl
		}
	case RefType:
		return func(k syntax.Kind) bool {
			switch k {
			case syntax.KindTypeReprDecl, syntax.KindTypeModelDecl, syntax.KindParamDef,
				syntax.KindFacilityDecl, syntax.KindUsesSpec, syntax.KindExemplarDecl:
				return true
			}
			return false
		}
	default:
		return func(syntax.Kind) bool { return true }
	}
}

func isQualifierDecl(k syntax.Kind) bool {
	switch k {
	case syntax.KindUsesSpec, syntax.KindFacilityDecl, syntax.KindModuleDecl:
		return true
	}
	return false
}

// referenceName is the name a reference occurrence refers to: its last
// identifier, or its own text when it is a bare leaf.
func referenceName(occ syntax.Node) string {
	ids := occ.ChildrenOfKind(syntax.KindIdentifier)
	if len(ids) > 0 {
		return ids[len(ids)-1].Text()
	}
	return Unquote(occ.Text())
}

// qualifierOf returns the qualifier identifier of a reference written as
// Qualifier.Name, or the zero node.
func qualifierOf(occ syntax.Node) syntax.Node {
	switch occ.Kind() {
	case syntax.KindReferenceExp, syntax.KindTypeReferenceExp, syntax.KindMathReferenceExp:
	default:
		return syntax.Node{}
	}
	ids := occ.ChildrenOfKind(syntax.KindIdentifier)
	if len(ids) < 2 || !occ.ChildOfKind(syntax.KindDot).IsValid() {
		return syntax.Node{}
	}
	return ids[0]
}

// previousElement returns the chain element before occ when occ continues a
// selector chain after a dot.
func previousElement(occ syntax.Node) syntax.Node {
	parent := occ.Parent()
	switch parent.Kind() {
	case syntax.KindSelectorExp, syntax.KindMathSelectorExp:
	default:
		return syntax.Node{}
	}
	if !PrevDot(occ) {
		return syntax.Node{}
	}
	isElement := syntax.Kind.IsExpression
	if parent.Kind() == syntax.KindMathSelectorExp {
		isElement = syntax.Kind.IsMathExpression
	}
	for sib := occ.PrevSibling(); sib.IsValid(); sib = sib.PrevSibling() {
		if !isElement(sib.Kind()) {
			continue
		}
		// A nested chain contributes its last element.
		for sib.Kind() == parent.Kind() {
			sib = sib.LastChildMatching(isElement)
		}
		return sib
	}
	return syntax.Node{}
}
