package infer

import "resolvels/internal/engine/syntax"

// StructuralDeclarations reads declared types and meta-types off the tree:
//
//	VarDef        the type of its VarSpec, else the type of the initializer
//	ParamDef      the type of its ParamDecl
//	TypeReprDecl  its representation type
//	OperationDecl its return type
//	ExemplarDecl  the enclosing type representation
//
// and for meta-types:
//
//	MathVarDecl, MathDefnDecl  the math type after ':', else the meta-type
//	                           of the defining expression after '='
//	TypeModelDecl              its model expression
//	ExemplarDecl               the enclosing type model's expression
//	ParamDef                   the type of its ParamDecl
type StructuralDeclarations struct{}

func (StructuralDeclarations) DeclaredType(q *Query, decl syntax.Node) syntax.Node {
	isType := syntax.Kind.IsType
	switch decl.Kind() {
	case syntax.KindVarDef:
		spec := decl.Parent()
		if t := spec.FirstChildMatching(isType); t.IsValid() {
			return t
		}
		return q.TypeOf(spec.FirstChildMatching(syntax.Kind.IsExpression))
	case syntax.KindParamDef:
		return decl.Parent().FirstChildMatching(isType)
	case syntax.KindTypeReprDecl, syntax.KindOperationDecl:
		return decl.FirstChildMatching(isType)
	case syntax.KindExemplarDecl:
		return decl.AncestorOfKind(syntax.KindTypeReprDecl).FirstChildMatching(isType)
	}
	return syntax.Node{}
}

func (StructuralDeclarations) MetaType(q *Query, decl syntax.Node) syntax.Node {
	isMath := syntax.Kind.IsMathExpression
	switch decl.Kind() {
	case syntax.KindMathVarDecl, syntax.KindMathDefnDecl:
		if t := childAfter(decl, ":", isMath); t.IsValid() {
			return t
		}
		return q.MetaTypeOf(childAfter(decl, "=", isMath))
	case syntax.KindTypeModelDecl:
		return decl.FirstChildMatching(isMath)
	case syntax.KindExemplarDecl:
		return decl.AncestorOfKind(syntax.KindTypeModelDecl).FirstChildMatching(isMath)
	case syntax.KindParamDef:
		return decl.Parent().FirstChildMatching(func(k syntax.Kind) bool {
			return k.IsType() || k.IsMathExpression()
		})
	}
	return syntax.Node{}
}

// childAfter returns the first child matching match that follows a token
// spelled tok.
func childAfter(n syntax.Node, tok string, match func(syntax.Kind) bool) syntax.Node {
	seen := false
	for _, c := range n.Children() {
		if c.Kind() == syntax.KindToken && c.Text() == tok {
			seen = true
			continue
		}
		if seen && match(c.Kind()) {
			return c
		}
	}
	return syntax.Node{}
}
