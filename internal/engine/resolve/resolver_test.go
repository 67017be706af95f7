package resolve

import (
	"testing"

	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/syntax"
)

func TestResolve_UsesStrings(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		text string
		want Result
	}{
		{`"Stack_Template"`, File("/lib/Stack_Template.co")},
		{`"collections/Queue_Template"`, File("/lib/collections/Queue_Template.co")},
		{`"collections"`, Dir("/lib/collections")},
		{`"Nonexistent"`, Unresolved()},
	}
	for _, tt := range tests {
		n := nth(t, f.main, syntax.KindUsesString, tt.text, 0)
		if got := f.r.Resolve(n); got != tt.want {
			t.Errorf("Resolve(%s) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestResolve_ShortLiteralHasNoReferences(t *testing.T) {
	f := newFixture(t)
	n := nth(t, f.main, syntax.KindUsesString, `"`, 0)

	if refs := References(n); len(refs) != 0 {
		t.Fatalf("expected no references for %q, got %v", n.Text(), refs)
	}
	if got := f.r.Resolve(n); got.IsResolved() {
		t.Fatalf("expected unresolved, got %v", got)
	}
	if f.index.lookups != 0 {
		t.Errorf("short literal consulted the index %d times", f.index.lookups)
	}
}

func TestReferences_PerSegment(t *testing.T) {
	f := newFixture(t)
	n := nth(t, f.main, syntax.KindUsesString, `"collections/Queue_Template"`, 0)

	refs := References(n)
	if len(refs) != 2 {
		t.Fatalf("expected 2 segment references, got %d", len(refs))
	}
	src := f.main.Source()
	if got := refs[0].Segment.Range.Substring(src); got != "collections" {
		t.Errorf("segment 0 range covers %q", got)
	}
	if got := refs[1].Segment.Range.Substring(src); got != "Queue_Template" {
		t.Errorf("segment 1 range covers %q", got)
	}
	if refs[0].Final || !refs[1].Final {
		t.Error("only the last segment is final")
	}
	if got := f.r.ResolveReference(refs[0]); got != Dir("/lib/collections") {
		t.Errorf("directory segment resolved to %v", got)
	}
	if got := f.r.ResolveReference(refs[1]); got != File("/lib/collections/Queue_Template.co") {
		t.Errorf("final segment resolved to %v", got)
	}
}

func TestResolve_ScopeWalk(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name     string
		kind     syntax.Kind
		text     string
		nth      int
		wantKind syntax.Kind
		wantName string
	}{
		{"block local visible inside", syntax.KindReferenceExp, "v", 0, syntax.KindVarDef, "v"},
		{"param", syntax.KindReferenceExp, "p", 0, syntax.KindParamDef, "p"},
		{"operation sees itself", syntax.KindReferenceExp, "Main_Op", 0, syntax.KindOperationDecl, "Main_Op"},
		{"hoisted module type", syntax.KindTypeReferenceExp, "Point", 0, syntax.KindTypeReprDecl, "Point"},
		{"uses alias", syntax.KindIdentifier, "QT", 1, syntax.KindUsesSpec, "QT"},
		{"argument list is unconstrained", syntax.KindReferenceExp, "Stack_Template", 1, syntax.KindUsesSpec, "Stack_Template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.r.Resolve(nth(t, f.main, tt.kind, tt.text, tt.nth))
			if got.Kind != ResultDecl || got.Decl.Kind() != tt.wantKind || DeclName(got.Decl) != tt.wantName {
				t.Fatalf("got %v, want %s %q", got, tt.wantKind, tt.wantName)
			}
		})
	}
}

func TestResolve_Unresolved(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct {
		name string
		kind syntax.Kind
		text string
		nth  int
	}{
		{"block local outside its block", syntax.KindReferenceExp, "v", 1},
		{"declared later in a block", syntax.KindReferenceExp, "Later", 0},
		{"module slot naming a type", syntax.KindReferenceExp, "Point", 1},
		{"undeclared type", syntax.KindTypeReferenceExp, "Integer", 0},
	} {
		if got := f.r.Resolve(nth(t, f.main, tc.kind, tc.text, tc.nth)); got.IsResolved() {
			t.Errorf("%s: expected unresolved, got %v", tc.name, got)
		}
	}
}

func TestResolve_ModuleOnlyConstraint(t *testing.T) {
	f := newFixture(t)
	slot := nth(t, f.main, syntax.KindReferenceExp, "Stack_Template", 0)
	arg := nth(t, f.main, syntax.KindReferenceExp, "Stack_Template", 1)

	if !IsModuleOnly(slot) || KindOf(slot) != RefModule {
		t.Fatal("module slot must be module-only")
	}
	if IsModuleOnly(arg) || KindOf(arg) != RefValue {
		t.Fatal("argument list reference must not be module-only")
	}
	if got := f.r.Resolve(slot); got != File("/lib/Stack_Template.co") {
		t.Errorf("module slot resolved to %v", got)
	}
	if got := f.r.Resolve(arg); got.Kind != ResultDecl {
		t.Errorf("argument resolved to %v, want a declaration", got)
	}

	spec := nth(t, f.main, syntax.KindModuleSpec, `"Stack_Template"`, 0)
	if got := f.r.Resolve(spec); got != File("/lib/Stack_Template.co") {
		t.Errorf("quoted module spec resolved to %v", got)
	}
}

func TestResolve_QualifiedAndSelector(t *testing.T) {
	f := newFixture(t)

	x := f.r.Resolve(nth(t, f.main, syntax.KindReferenceExp, "x", 0))
	if x.Kind != ResultDecl || DeclName(x.Decl) != "x" || x.Decl.Tree() != f.main {
		t.Errorf("q.x resolved to %v", x)
	}
	// c has no written type; its members come from the initializer q.
	cx := f.r.Resolve(nth(t, f.main, syntax.KindReferenceExp, "x", 1))
	if cx != x {
		t.Errorf("c.x resolved to %v, want %v", cx, x)
	}
	y := f.r.Resolve(nth(t, f.main, syntax.KindReferenceExp, "y", 0))
	if y.Kind != ResultDecl || DeclName(y.Decl) != "y" {
		t.Errorf("p.y resolved to %v", y)
	}

	stack := f.r.Resolve(nth(t, f.main, syntax.KindTypeReferenceExp, "Stack_Fac.Stack", 0))
	if stack.Kind != ResultDecl || stack.Decl.Kind() != syntax.KindTypeModelDecl || stack.Decl.Tree() != f.stack {
		t.Errorf("Stack_Fac.Stack resolved to %v", stack)
	}

	enqueue := f.r.Resolve(nth(t, f.main, syntax.KindReferenceExp, "QT.Enqueue", 0))
	if enqueue.Kind != ResultDecl || DeclName(enqueue.Decl) != "Enqueue" {
		t.Errorf("QT.Enqueue resolved to %v", enqueue)
	}

	// The qualifier identifier resolves on its own.
	qualifier := nth(t, f.main, syntax.KindIdentifier, "Stack_Fac", 1)
	if got := f.r.Resolve(qualifier); got.Kind != ResultDecl || got.Decl.Kind() != syntax.KindFacilityDecl {
		t.Errorf("qualifier resolved to %v", got)
	}
}

func TestResolve_SingleLetterModule(t *testing.T) {
	ix, err := modindex.NewMemoryIndex([]string{"/lib"}, modindex.Options{Extensions: []string{".co"}})
	if err != nil {
		t.Fatal(err)
	}
	ix.Load([]modindex.Entry{{Kind: modindex.EntryFile, Path: "/lib/X.co"}})
	tree := read(t, "/proj/X_Fac.fa", `
(File (ModuleDecl "Facility" "M"
  (FacilityDecl "Facility" "X_Fac" "is" (ModuleSpec "X") ";")))`)
	r := New(ix, nil, nil, 0)

	spec := tree.Find(syntax.KindModuleSpec)[0]
	if refs := References(spec); len(refs) != 1 || refs[0].Segment.Text != "X" {
		t.Errorf("References(X) = %v", refs)
	}
	if got := r.Resolve(spec); got != File("/lib/X.co") {
		t.Errorf("Resolve(X) = %v", got)
	}
	if got := r.Specification(tree.Find(syntax.KindFacilityDecl)[0]); got != File("/lib/X.co") {
		t.Errorf("Specification(X_Fac) = %v", got)
	}
}

func TestSpecification(t *testing.T) {
	f := newFixture(t)
	facilities := f.main.Find(syntax.KindFacilityDecl)
	want := map[string]Result{
		"Stack_Fac": File("/lib/Stack_Template.co"),
		"Bad_Fac":   Unresolved(),
		"Spec_Fac":  File("/lib/Stack_Template.co"),
	}
	for _, fac := range facilities {
		name := DeclName(fac)
		if got := f.r.Specification(fac); got != want[name] {
			t.Errorf("Specification(%s) = %v, want %v", name, got, want[name])
		}
	}
	if got := f.r.Specification(f.main.Root()); got.IsResolved() {
		t.Errorf("non-facility specification = %v", got)
	}
}

func TestResolve_CachedUnderStamp(t *testing.T) {
	f := newFixture(t)
	n := nth(t, f.main, syntax.KindUsesString, `"Stack_Template"`, 0)

	first := f.r.Resolve(n)
	lookups := f.index.lookups
	if again := f.r.Resolve(n); again != first {
		t.Fatalf("second resolve differs: %v vs %v", again, first)
	}
	if f.index.lookups != lookups {
		t.Errorf("cached resolve hit the index again")
	}

	f.tracker.Bump()
	f.r.Resolve(n)
	if f.index.lookups == lookups {
		t.Errorf("resolve after modification should recompute")
	}
}

func TestResolve_NonReferences(t *testing.T) {
	f := newFixture(t)
	for _, n := range []syntax.Node{{}, f.main.Root(), f.main.Find(syntax.KindBlock)[0]} {
		if got := f.r.Resolve(n); got.IsResolved() {
			t.Errorf("Resolve(%s) = %v", n, got)
		}
	}
}

func TestResolve_WithoutIndex(t *testing.T) {
	f := newFixture(t)
	r := New(nil, nil, nil, 0)
	n := nth(t, f.main, syntax.KindUsesString, `"Stack_Template"`, 0)
	if got := r.Resolve(n); got.IsResolved() {
		t.Errorf("resolver without index resolved %v", got)
	}
	if got := r.Resolve(nth(t, f.main, syntax.KindReferenceExp, "p", 0)); got.Kind != ResultDecl {
		t.Errorf("local lookups must not need an index, got %v", got)
	}
}
