// Package resolve maps reference occurrences in a syntax tree to the
// declaration, module file or library directory they name.
package resolve

import (
	"fmt"

	"resolvels/internal/engine/syntax"
)

// RefKind is the closed set of reference occurrence variants.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefValue
	RefType
	RefMath
	RefModule
	RefLibrary
	RefUses
)

func (k RefKind) String() string {
	switch k {
	case RefValue:
		return "value"
	case RefType:
		return "type"
	case RefMath:
		return "math"
	case RefModule:
		return "module"
	case RefLibrary:
		return "library"
	case RefUses:
		return "uses"
	default:
		return "none"
	}
}

// KindOf classifies n as a reference occurrence. A ReferenceExp in the module
// slot of a facility header is a module reference.
func KindOf(n syntax.Node) RefKind {
	switch n.Kind() {
	case syntax.KindReferenceExp:
		if IsModuleOnly(n) {
			return RefModule
		}
		return RefValue
	case syntax.KindTypeReferenceExp:
		return RefType
	case syntax.KindMathReferenceExp:
		return RefMath
	case syntax.KindModuleSpec:
		return RefModule
	case syntax.KindLibrarySpec:
		return RefLibrary
	case syntax.KindUsesString:
		return RefUses
	default:
		return RefNone
	}
}

// Occurrence returns the reference occurrence that n belongs to: n itself when
// it is a reference, or the enclosing reference when n is one of its
// identifier leaves.
func Occurrence(n syntax.Node) syntax.Node {
	if KindOf(n) != RefNone {
		return n
	}
	if n.Kind() == syntax.KindIdentifier {
		if p := n.Parent(); KindOf(p) != RefNone {
			return p
		}
	}
	return syntax.Node{}
}

// IsModuleOnly reports whether a reference sits in a facility header outside
// the header's argument list, where only module files are acceptable targets.
func IsModuleOnly(n syntax.Node) bool {
	for cur := n.Parent(); cur.IsValid(); cur = cur.Parent() {
		switch cur.Kind() {
		case syntax.KindArgList:
			return false
		case syntax.KindFacilityDecl:
			return true
		}
	}
	return false
}

type ResultKind uint8

const (
	ResultUnresolved ResultKind = iota
	ResultDecl
	ResultFile
	ResultDir
)

func (k ResultKind) String() string {
	switch k {
	case ResultDecl:
		return "decl"
	case ResultFile:
		return "file"
	case ResultDir:
		return "dir"
	default:
		return "unresolved"
	}
}

// Result is the outcome of resolving a reference occurrence. Decl is set for
// ResultDecl, Path for ResultFile and ResultDir. The zero value is Unresolved.
type Result struct {
	Kind ResultKind
	Decl syntax.Node
	Path string
}

func Unresolved() Result { return Result{} }

func Declaration(n syntax.Node) Result {
	if !n.IsValid() {
		return Result{}
	}
	return Result{Kind: ResultDecl, Decl: n}
}

func File(path string) Result { return Result{Kind: ResultFile, Path: path} }

func Dir(path string) Result { return Result{Kind: ResultDir, Path: path} }

func (r Result) IsResolved() bool { return r.Kind != ResultUnresolved }

func (r Result) IsFile() bool { return r.Kind == ResultFile }

func (r Result) IsDir() bool { return r.Kind == ResultDir }

func (r Result) String() string {
	switch r.Kind {
	case ResultDecl:
		return fmt.Sprintf("decl %s %q", r.Decl.Kind(), DeclName(r.Decl))
	case ResultFile:
		return "file " + r.Path
	case ResultDir:
		return "dir " + r.Path
	default:
		return "unresolved"
	}
}
