package resolve

import (
	"slices"
	"testing"

	"resolvels/internal/engine/syntax"
)

func visibleNames(place syntax.Node) []string {
	var names []string
	VisibleDeclarations(place, func(n syntax.Node) Step {
		if n.Kind().IsDeclaration() {
			names = append(names, DeclName(n))
		}
		return Continue()
	})
	return names
}

func TestVisibleDeclarations_BlockLocals(t *testing.T) {
	f := newFixture(t)
	inside := nth(t, f.main, syntax.KindReferenceExp, "v", 0)
	outside := nth(t, f.main, syntax.KindReferenceExp, "v", 1)

	if names := visibleNames(inside); !slices.Contains(names, "v") {
		t.Errorf("v not visible inside its block: %v", names)
	}
	if names := visibleNames(outside); slices.Contains(names, "v") {
		t.Errorf("v leaked outside its block: %v", names)
	}
}

func TestVisibleDeclarations_OrderAndHoisting(t *testing.T) {
	f := newFixture(t)
	names := visibleNames(nth(t, f.main, syntax.KindReferenceExp, "Later", 0))

	for _, want := range []string{"q", "p", "Main_Op", "Point", "Stack_Fac", "Main", "QT"} {
		if !slices.Contains(names, want) {
			t.Errorf("%s should be visible, got %v", want, names)
		}
	}
	if slices.Contains(names, "Later") {
		t.Error("a block local must not be visible before its declaration")
	}
	if slices.Contains(names, "x") {
		t.Error("record fields must not leak into the enclosing scope")
	}
	// The nearest declaration is offered first.
	if names[0] != "q" {
		t.Errorf("first visible declaration = %q, want q", names[0])
	}
}

func TestVisibleDeclarations_OwnSpecHidden(t *testing.T) {
	tree := read(t, "self.fa", `
(File (ModuleDecl "Facility" "M"
  (OperationDecl "Operation" "Op" (Block
    (VarSpec "Var" (VarDef "w") ":" (TypeReferenceExp "w") ";")))))`)
	typeRef := tree.Find(syntax.KindTypeReferenceExp)[0]
	if names := visibleNames(typeRef); slices.Contains(names, "w") {
		t.Errorf("a variable must not be in scope inside its own specification: %v", names)
	}
}

func TestVisibleDeclarations_StopPropagates(t *testing.T) {
	f := newFixture(t)
	place := nth(t, f.main, syntax.KindReferenceExp, "Later", 0)

	offered := 0
	st := VisibleDeclarations(place, func(n syntax.Node) Step {
		offered++
		if n.Kind() == syntax.KindVarDef && DeclName(n) == "q" {
			return Stop(Declaration(n))
		}
		return Continue()
	})
	if !st.Stopped() || DeclName(st.Result().Decl) != "q" {
		t.Fatalf("expected stop at q, got %+v", st)
	}

	total := 0
	VisibleDeclarations(place, func(syntax.Node) Step { total++; return Continue() })
	if offered >= total {
		t.Errorf("walk continued after stop: offered %d of %d", offered, total)
	}
}

func TestMembers_RecordFields(t *testing.T) {
	f := newFixture(t)
	record := f.main.Find(syntax.KindRecordType)[0]
	var fields []string
	Members(record, func(n syntax.Node) Step {
		if n.Kind() == syntax.KindVarDef {
			fields = append(fields, DeclName(n))
		}
		return Continue()
	})
	if !slices.Equal(fields, []string{"x", "y"}) {
		t.Errorf("fields = %v", fields)
	}
}
