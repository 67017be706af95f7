package resolve

import (
	"strings"

	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/syntax"
)

// PathReference is the reference contributed by one segment of a uses path
// or module literal. Non-final segments name directories.
type PathReference struct {
	Literal syntax.Node
	Segment Segment
	Final   bool
}

// References returns one reference per path segment of a uses string,
// module spec or library spec. Path literals shorter than two characters and
// empty module names have no references.
func References(literal syntax.Node) []PathReference {
	switch KindOf(literal) {
	case RefUses, RefModule, RefLibrary:
	default:
		return nil
	}
	if tooShort(literal) {
		return nil
	}
	segs := Segments(literal)
	out := make([]PathReference, len(segs))
	for i, seg := range segs {
		out[i] = PathReference{Literal: literal, Segment: seg, Final: i == len(segs)-1}
	}
	return out
}

// tooShort reports whether a literal is too short to name anything. Uses and
// library paths are quoted, so fewer than two characters is just quotes. A
// module name may be a single letter.
func tooShort(literal syntax.Node) bool {
	if KindOf(literal) == RefModule {
		return literal.TextLen() == 0
	}
	return literal.TextLen() < 2
}

// ReferenceRange is the highlight range of a path or module literal.
func ReferenceRange(literal syntax.Node) syntax.Range {
	switch literal.Kind() {
	case syntax.KindModuleSpec:
		return ModuleSpecTextRange(literal)
	case syntax.KindUsesString, syntax.KindLibrarySpec:
		return PathTextRange(literal)
	}
	return literal.Range()
}

// ResolveReference resolves a single segment reference. A non-final segment
// resolves to the directory reached after that segment.
func (r *Resolver) ResolveReference(ref PathReference) Result {
	if ref.Final {
		return r.Resolve(ref.Literal)
	}
	segs := Segments(ref.Literal)
	if ref.Segment.Index >= len(segs) {
		return Unresolved()
	}
	prefix := make([]string, 0, ref.Segment.Index+1)
	for _, seg := range segs[:ref.Segment.Index+1] {
		prefix = append(prefix, seg.Text)
	}
	res := r.walkPath(ref.Literal.Tree(), prefix)
	if !res.IsDir() {
		return Unresolved()
	}
	return res
}

func splitPath(text string) []string {
	path := Unquote(text)
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func entryResult(e modindex.Entry) Result {
	switch e.Kind {
	case modindex.EntryFile:
		return File(e.Path)
	case modindex.EntryDir:
		return Dir(e.Path)
	}
	return Unresolved()
}

// bases lists the directories a uses path is resolved against: the
// directory of the referencing file first, then every library root.
func (r *Resolver) bases(tree *syntax.Tree) []string {
	var out []string
	if dir := tree.Dir(); dir != "" {
		out = append(out, dir)
	}
	return append(out, r.index.Roots()...)
}

// walkPath resolves path segments from each base in turn. Every segment but
// the last must name a directory.
func (r *Resolver) walkPath(tree *syntax.Tree, segs []string) Result {
	if r.index == nil || len(segs) == 0 {
		return Unresolved()
	}
	for _, base := range r.bases(tree) {
		if res := r.walkFrom(base, segs); res.IsResolved() {
			return res
		}
	}
	return Unresolved()
}

func (r *Resolver) walkFrom(base string, segs []string) Result {
	cur := base
	for i, seg := range segs {
		e, ok := r.index.Lookup(cur, seg)
		if !ok {
			return Unresolved()
		}
		if i == len(segs)-1 {
			return entryResult(e)
		}
		if !e.IsDir() {
			return Unresolved()
		}
		cur = e.Path
	}
	return Unresolved()
}

func (r *Resolver) resolveUses(occ syntax.Node) Result {
	if occ.TextLen() < 2 {
		return Unresolved()
	}
	return r.walkPath(occ.Tree(), splitPath(occ.Text()))
}

// resolveLibrary accepts only a directory.
func (r *Resolver) resolveLibrary(occ syntax.Node) Result {
	if occ.TextLen() < 2 {
		return Unresolved()
	}
	res := r.walkPath(occ.Tree(), splitPath(occ.Text()))
	if !res.IsDir() {
		return Unresolved()
	}
	return res
}

// resolveModule accepts only a module file. The name is matched against
// the uses clauses in scope, then against modules anywhere in the index.
func (r *Resolver) resolveModule(s *session, occ syntax.Node) Result {
	name := referenceName(occ)
	if tooShort(occ) {
		return Unresolved()
	}
	if name == "" {
		return Unresolved()
	}

	var res Result
	if strings.Contains(name, "/") {
		res = r.walkPath(occ.Tree(), strings.Split(name, "/"))
	} else if uses := r.lookup(occ, name, isUsesSpec); uses.IsResolved() {
		res = r.resolve(s, uses.Decl.ChildOfKind(syntax.KindUsesString))
	} else if r.index != nil {
		if e, ok := r.index.FindModule(name); ok {
			res = entryResult(e)
		}
	}
	if !res.IsFile() {
		return Unresolved()
	}
	return res
}

func isUsesSpec(k syntax.Kind) bool { return k == syntax.KindUsesSpec }

// Specification resolves the specification module a facility instantiates:
// the first module slot of its header, which must name a file.
func (r *Resolver) Specification(facility syntax.Node) Result {
	return r.specification(r.newSession(), facility)
}

func (r *Resolver) specification(s *session, facility syntax.Node) Result {
	if facility.Kind() != syntax.KindFacilityDecl {
		return Unresolved()
	}
	for _, c := range facility.Children() {
		if c.Kind() == syntax.KindModuleSpec || c.Kind() == syntax.KindReferenceExp {
			res := r.resolve(s, c)
			if !res.IsFile() {
				return Unresolved()
			}
			return res
		}
	}
	return Unresolved()
}
