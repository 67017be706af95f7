package resolve

import (
	"testing"

	"resolvels/internal/engine/memo"
	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/syntax"
)

const mainFacility = `
(File
  (ModuleDecl "Facility" "Main"
    (UsesList "uses"
      (UsesSpec (UsesString "\"Stack_Template\""))
      (UsesSpec (UsesString "\"collections/Queue_Template\"") "as" "QT")
      (UsesSpec (UsesString "\"collections\""))
      (UsesSpec (UsesString "\"Nonexistent\""))
      (UsesSpec (UsesString (Token "\""))))
    (TypeReprDecl "Type" "Point" "=" (RecordType "Record"
      (VarSpec (VarDef "x") ":" (TypeReferenceExp "Integer") ";")
      (VarSpec (VarDef "y") ":" (TypeReferenceExp "Integer") ";") "end"))
    (FacilityDecl "Facility" "Stack_Fac" "is" (ReferenceExp "Stack_Template")
      (ArgList "(" (ReferenceExp "Point") "," (ReferenceExp "Stack_Template") ")") ";")
    (FacilityDecl "Facility" "Bad_Fac" "is" (ReferenceExp "Point") ";")
    (FacilityDecl "Facility" "Spec_Fac" "is" (ModuleSpec (Token "\"Stack_Template\"")) ";")
    (OperationDecl "Operation" "Main_Op" "(" (ParamDecl "updates" (ParamDef "p") ":" (TypeReferenceExp "Point")) ")" ";"
      (Block
        (VarSpec "Var" (VarDef "q") ":" (TypeReferenceExp "Point") ";")
        (Statement (SelectorExp (ReferenceExp "q") "." (ReferenceExp "x")) ";")
        (Statement (SelectorExp (ReferenceExp "p") "." (ReferenceExp "y")) ";")
        (Block
          (VarSpec "Var" (VarDef "v") ":" (TypeReferenceExp "Integer") ";")
          (Statement (ReferenceExp "v") ";"))
        (Statement (ReferenceExp "v") ";")
        (Statement (ReferenceExp "Later") ";")
        (Statement (TypeReferenceExp "Stack_Fac" "." "Stack") ";")
        (Statement (ReferenceExp "QT" "." "Enqueue") ";")
        (Statement (ReferenceExp "Main_Op") ";")
        (VarSpec "Var" (VarDef "Later") ":" (TypeReferenceExp "Integer") ";")
        (VarSpec "Var" (VarDef "c") ":=" (ReferenceExp "q") ";")
        (Statement (SelectorExp (ReferenceExp "c") "." (ReferenceExp "x")) ";")))
    "end" "Main" ";"))
`

const stackTemplate = `
(File
  (ModuleDecl "Concept" "Stack_Template" "("
    (ParamDecl (Token "type") (ParamDef "Entry") ";")
    (ParamDecl "evaluates" (ParamDef "Max_Depth") ":" (TypeReferenceExp "Integer")) ")" ";"
    (TypeModelDecl "Type" "Family" "Stack" "is" "modeled" "by"
      (MathExp "Str" "(" (MathReferenceExp "Entry") ")") ";"
      (ExemplarDecl "exemplar" "S") ";")
    (OperationDecl "Operation" "Push" "(" (ParamDecl "alters" (ParamDef "E") ":" (TypeReferenceExp "Entry")) ")" ";")
    "end" ";"))
`

const queueTemplate = `
(File
  (ModuleDecl "Concept" "Queue_Template"
    (OperationDecl "Operation" "Enqueue" ";")
    "end" ";"))
`

type treeMap map[string]*syntax.Tree

func (m treeMap) Tree(path string) (*syntax.Tree, bool) {
	t, ok := m[path]
	return t, ok
}

// countingIndex records every lookup made against the wrapped index.
type countingIndex struct {
	*modindex.MemoryIndex
	lookups int
}

func (c *countingIndex) Lookup(dir, segment string) (modindex.Entry, bool) {
	c.lookups++
	return c.MemoryIndex.Lookup(dir, segment)
}

func (c *countingIndex) FindModule(name string) (modindex.Entry, bool) {
	c.lookups++
	return c.MemoryIndex.FindModule(name)
}

type fixture struct {
	main    *syntax.Tree
	stack   *syntax.Tree
	index   *countingIndex
	tracker *memo.Tracker
	r       *Resolver
}

func read(t *testing.T, path, src string) *syntax.Tree {
	t.Helper()
	tree, err := syntax.ReadSExpr(path, src)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return tree
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ix, err := modindex.NewMemoryIndex([]string{"/lib"}, modindex.Options{Extensions: []string{".co", ".fa"}})
	if err != nil {
		t.Fatal(err)
	}
	ix.Load([]modindex.Entry{
		{Kind: modindex.EntryFile, Path: "/lib/Stack_Template.co"},
		{Kind: modindex.EntryFile, Path: "/lib/Foo_Template.co"},
		{Kind: modindex.EntryFile, Path: "/lib/collections/Queue_Template.co"},
	})
	f := &fixture{
		main:    read(t, "/proj/Main.fa", mainFacility),
		stack:   read(t, "/lib/Stack_Template.co", stackTemplate),
		index:   &countingIndex{MemoryIndex: ix},
		tracker: memo.NewTracker(),
	}
	trees := treeMap{
		"/proj/Main.fa":                      f.main,
		"/lib/Stack_Template.co":             f.stack,
		"/lib/collections/Queue_Template.co": read(t, "/lib/collections/Queue_Template.co", queueTemplate),
	}
	f.r = New(f.index, trees, f.tracker, 0)
	return f
}

// nth returns the i-th node of kind whose text is text.
func nth(t *testing.T, tree *syntax.Tree, kind syntax.Kind, text string, i int) syntax.Node {
	t.Helper()
	seen := 0
	for _, n := range tree.Find(kind) {
		if n.Text() == text {
			if seen == i {
				return n
			}
			seen++
		}
	}
	t.Fatalf("no %s #%d with text %q", kind, i, text)
	return syntax.Node{}
}
