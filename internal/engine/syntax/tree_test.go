package syntax

import (
	"strings"
	"testing"
)

const sampleTree = `
(File
  (ModuleDecl "Facility" "Main"
    (UsesList "uses" (UsesSpec (UsesString "\"Stack_Template\"")))
    (VarSpec "Var" (VarDef "x") ":" (TypeReferenceExp "Integer") ";")
    (Block
      (Statement (SelectorExp (ReferenceExp "S") "." (ReferenceExp "Contents")) ";"))))
`

func mustRead(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := ReadSExpr("Main.fa", src)
	if err != nil {
		t.Fatalf("ReadSExpr: %v", err)
	}
	return tree
}

func TestReadSExpr_TextAndStructure(t *testing.T) {
	tree := mustRead(t, sampleTree)

	root := tree.Root()
	if root.Kind() != KindFile {
		t.Fatalf("expected File root, got %s", root.Kind())
	}
	module := root.ChildOfKind(KindModuleDecl)
	if !module.IsValid() {
		t.Fatal("expected module declaration")
	}
	if got := module.ChildOfKind(KindIdentifier).Text(); got != "Main" {
		t.Errorf("first identifier = %q, want Main", got)
	}

	uses := tree.Find(KindUsesString)
	if len(uses) != 1 || uses[0].Text() != `"Stack_Template"` {
		t.Fatalf("unexpected uses strings %v", uses)
	}

	selectors := tree.Find(KindSelectorExp)
	if len(selectors) != 1 {
		t.Fatalf("expected one selector, got %d", len(selectors))
	}
	if got := selectors[0].Text(); got != "S.Contents" {
		t.Errorf("selector text = %q, want S.Contents", got)
	}

	varDef := tree.Find(KindVarDef)[0]
	if varDef.Text() != "x" {
		t.Errorf("var def text = %q", varDef.Text())
	}
	if !strings.Contains(tree.Source(), "Var x : Integer ;") {
		t.Errorf("unexpected synthesized source %q", tree.Source())
	}
}

func TestNode_Navigation(t *testing.T) {
	tree := mustRead(t, sampleTree)
	refs := tree.Find(KindReferenceExp)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	s, contents := refs[0], refs[1]

	if got := contents.PrevVisibleLeaf(); got.Kind() != KindDot {
		t.Errorf("prev visible leaf of Contents = %s, want Dot", got)
	}
	if got := s.PrevVisibleLeaf(); got.Kind() == KindDot {
		t.Error("S must not be preceded by a dot")
	}

	block := tree.Find(KindBlock)[0]
	if !block.IsAncestorOf(s, true) {
		t.Error("block should be an ancestor of S")
	}
	if !block.IsAncestorOf(block, false) || block.IsAncestorOf(block, true) {
		t.Error("non-strict ancestor test must include the node itself, strict must not")
	}
	if got := s.AncestorOfKind(KindModuleDecl); !got.IsValid() {
		t.Error("expected module ancestor")
	}
	if got := s.AncestorOfKind(KindFacilityDecl); got.IsValid() {
		t.Error("unexpected facility ancestor")
	}

	spec := tree.Find(KindVarSpec)[0]
	next := spec.NextSibling()
	if next.Kind() != KindWhitespace {
		t.Fatalf("next sibling of var spec = %s, want synthesized Whitespace", next)
	}
	if next.NextSibling() != block {
		t.Errorf("expected block after whitespace, got %s", next.NextSibling())
	}
	if prev := block.PrevSibling().PrevSibling(); prev != spec {
		t.Errorf("prev sibling of block = %s, want var spec", prev)
	}
}

func TestTree_NodeAt(t *testing.T) {
	tree := mustRead(t, sampleTree)
	off := strings.Index(tree.Source(), "Contents")
	n := tree.NodeAt(off)
	if n.Kind() != KindIdentifier || n.Text() != "Contents" {
		t.Fatalf("NodeAt(%d) = %s %q", off, n, n.Text())
	}
	if n.Parent().Kind() != KindReferenceExp {
		t.Errorf("parent = %s, want ReferenceExp", n.Parent())
	}
	if got := tree.NodeAt(len(tree.Source()) + 10); got.IsValid() {
		t.Errorf("expected invalid node past the end, got %s", got)
	}
}

func TestZeroNode(t *testing.T) {
	var n Node
	if n.IsValid() || n.Kind() != KindInvalid || n.Text() != "" || n.Parent().IsValid() {
		t.Fatal("zero node must be inert")
	}
	if n.ChildCount() != 0 || n.PrevVisibleLeaf().IsValid() {
		t.Fatal("zero node must have no children or leaves")
	}
}

func TestReadSExpr_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown kind", `(Bogus "x")`},
		{"unterminated", `(File (Block "x")`},
		{"leaf with children", `(Identifier (Block))`},
		{"trailing input", `(File) (File)`},
		{"bad string", `(File "unterminated)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadSExpr("x", tt.src); err == nil {
				t.Errorf("expected error for %s", tt.src)
			}
		})
	}
}

func TestWriteSExpr_RoundTrip(t *testing.T) {
	tree := mustRead(t, sampleTree)
	out := WriteSExpr(tree.Root())
	again, err := ReadSExpr("again", out)
	if err != nil {
		t.Fatalf("re-read: %v\n%s", err, out)
	}
	if again.Source() != tree.Source() {
		t.Errorf("round trip changed source:\n%q\n%q", tree.Source(), again.Source())
	}
	if again.Len() != tree.Len() {
		t.Errorf("round trip changed node count: %d vs %d", tree.Len(), again.Len())
	}
}

func TestSourceBuilder(t *testing.T) {
	src := "a.b"
	b := NewSourceBuilder("x", src)
	b.OpenAt(KindSelectorExp, 0)
	b.OpenAt(KindReferenceExp, 0)
	b.LeafAt(KindIdentifier, 0, 1)
	b.Close()
	b.LeafAt(KindDot, 1, 2)
	b.OpenAt(KindReferenceExp, 2)
	b.LeafAt(KindIdentifier, 2, 3)
	b.Close()
	b.CloseAt(3)
	tree, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Root().Text(); got != "a.b" {
		t.Errorf("root text = %q", got)
	}
	refs := tree.Find(KindReferenceExp)
	if refs[1].Text() != "b" || refs[0].Range() != (Range{0, 1}) {
		t.Errorf("unexpected ranges %v %v", refs[0].Range(), refs[1].Range())
	}
}

func TestRange(t *testing.T) {
	if r := NewRange(4, 2); !r.IsEmpty() || r.Start != 4 {
		t.Errorf("inverted range should collapse, got %+v", r)
	}
	if got := (Range{1, 4}).Substring("hello"); got != "ell" {
		t.Errorf("Substring = %q", got)
	}
	if got := (Range{3, 10}).Substring("hello"); got != "lo" {
		t.Errorf("clamped Substring = %q", got)
	}
}

func TestClassifyLeaf(t *testing.T) {
	tests := []struct {
		text string
		want Kind
	}{
		{".", KindDot},
		{"Stack", KindIdentifier},
		{"Max_Depth", KindIdentifier},
		{"x'", KindIdentifier},
		{"Var", KindToken},
		{"uses", KindToken},
		{":=", KindToken},
		{`"Foo"`, KindToken},
		{"1", KindToken},
	}
	for _, tt := range tests {
		if got := ClassifyLeaf(tt.text); got != tt.want {
			t.Errorf("ClassifyLeaf(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}
