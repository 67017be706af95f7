package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/engine/infer"
	"resolvels/internal/engine/resolve"
	"resolvels/internal/engine/syntax"
)

const pointSource = `package main

import fmtx "fmt"

// Point is a record.
type Point struct {
	X int
	Y int
}

func main() {
	var p Point
	_ = p.X
	fmtx.Println(p.Y)
}
`

type oneTree struct{ t *syntax.Tree }

func (o oneTree) Tree(path string) (*syntax.Tree, bool) {
	if o.t != nil && o.t.Path() == path {
		return o.t, true
	}
	return nil, false
}

func parseGo(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	reg, err := NewRegistry(GoProfile())
	require.NoError(t, err)
	tree, err := reg.Parse("/src/main.go", []byte(src))
	require.NoError(t, err)
	return tree
}

func findText(t *testing.T, tree *syntax.Tree, kind syntax.Kind, text string) syntax.Node {
	t.Helper()
	for _, n := range tree.Find(kind) {
		if n.Text() == text {
			return n
		}
	}
	t.Fatalf("no %s %q in\n%s", kind, text, syntax.WriteSExpr(tree.Root()))
	return syntax.Node{}
}

func TestRegistry_ParseGo(t *testing.T) {
	tree := parseGo(t, pointSource)

	assert.Equal(t, syntax.KindFile, tree.Root().Kind())
	assert.True(t, strings.HasPrefix(tree.Root().Text(), "package main"))
	assert.Len(t, tree.Find(syntax.KindOperationDecl), 1)
	assert.Len(t, tree.Find(syntax.KindRecordType), 1)
	assert.NotEmpty(t, tree.Find(syntax.KindComment))

	decl := tree.Find(syntax.KindTypeReprDecl)[0]
	assert.Equal(t, "Point", resolve.DeclName(decl))

	fields := tree.Find(syntax.KindVarDef)
	var names []string
	for _, f := range fields {
		names = append(names, resolve.DeclName(f))
	}
	assert.Equal(t, []string{"X", "Y", "p"}, names)

	dot := tree.Find(syntax.KindDot)
	require.NotEmpty(t, dot)
	assert.Equal(t, ".", dot[0].Text())
}

func TestRegistry_ResolvesFieldThroughRecord(t *testing.T) {
	tree := parseGo(t, pointSource)
	r := resolve.New(nil, oneTree{tree}, nil, 0)

	sel := findText(t, tree, syntax.KindSelectorExp, "p.X")
	field := sel.LastChildMatching(syntax.Kind.IsExpression)
	require.Equal(t, "X", field.Text())

	res := r.Resolve(field)
	require.True(t, res.IsResolved(), "p.X should resolve, got %s", res)
	assert.Equal(t, syntax.KindVarDef, res.Decl.Kind())
	assert.Equal(t, "X", resolve.DeclName(res.Decl))
	assert.True(t, res.Decl.AncestorOfKind(syntax.KindRecordType).IsValid())

	p := sel.FirstChildMatching(syntax.Kind.IsExpression)
	pres := r.Resolve(p)
	require.True(t, pres.IsResolved())
	assert.Equal(t, "p", resolve.DeclName(pres.Decl))

	e := infer.New(r, nil, 0)
	assert.Equal(t, "int", resolve.TypeText(e.TypeOf(sel, nil)))
	assert.Equal(t, "Point", resolve.TypeText(e.TypeOf(p, nil)))
}

func TestRegistry_ImportAlias(t *testing.T) {
	tree := parseGo(t, pointSource)
	spec := tree.Find(syntax.KindUsesSpec)
	require.Len(t, spec, 1)
	assert.Equal(t, "fmtx", resolve.UsesName(spec[0]))
	assert.Equal(t, `"fmt"`, spec[0].ChildOfKind(syntax.KindUsesString).Text())
}

func TestRegistry_SyntaxErrorsStillConvert(t *testing.T) {
	tree := parseGo(t, "package main\nfunc broken( {\n")
	assert.Equal(t, syntax.KindFile, tree.Root().Kind())
	assert.True(t, strings.HasPrefix(tree.Root().Text(), "package main"))
}

func TestRegistry_UnknownExtension(t *testing.T) {
	reg, err := NewRegistry(GoProfile())
	require.NoError(t, err)
	_, err = reg.Parse("a.rs", []byte("fn main() {}"))
	require.Error(t, err)
	assert.True(t, domainerr.IsCode(err, domainerr.CodeNotSupported))

	p, ok := reg.ForPath("dir/X.GO")
	require.True(t, ok)
	assert.Equal(t, "go", p.Name)
	assert.Equal(t, []string{"go"}, reg.Names())
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile("mini", "go", []string{"mgo"},
		map[string]string{"identifier": "ReferenceExp", "source_file": "File"},
		map[string]string{"var_spec.name": "VarDef"})
	require.NoError(t, err)
	assert.Equal(t, []string{".mgo"}, p.Extensions)
	assert.Equal(t, syntax.KindReferenceExp, p.Kinds["identifier"])
	assert.True(t, p.Matches("x/y.MGO"))

	tests := []struct {
		name    string
		grammar string
		kinds   map[string]string
		fields  map[string]string
		code    domainerr.ErrorCode
	}{
		{"unknown grammar", "rust", nil, nil, domainerr.CodeNotSupported},
		{"unknown kind", "go", map[string]string{"identifier": "Widget"}, nil, domainerr.CodeValidationError},
		{"invalid kind", "go", map[string]string{"identifier": "Invalid"}, nil, domainerr.CodeValidationError},
		{"field without parent", "go", nil, map[string]string{"name": "VarDef"}, domainerr.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfile("bad", tt.grammar, nil, tt.kinds, tt.fields)
			require.Error(t, err)
			assert.True(t, domainerr.IsCode(err, tt.code), err.Error())
			assert.Contains(t, err.Error(), "profile=bad")
		})
	}
}
