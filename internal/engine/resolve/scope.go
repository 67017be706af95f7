package resolve

import "resolvels/internal/engine/syntax"

// Step is the outcome of offering a node to a Visitor: continue the walk, or
// stop it with a result.
type Step struct {
	stopped bool
	result  Result
}

func Continue() Step { return Step{} }

func Stop(r Result) Step { return Step{stopped: true, result: r} }

func (s Step) Stopped() bool { return s.stopped }

// Result returns the result carried by a stopping step.
func (s Step) Result() Result { return s.result }

// Visitor is offered every node that may introduce names visible at a
// position. It is also offered non-declaration nodes, which it should
// ignore, and opaque blocks whose locals are out of scope.
type Visitor func(n syntax.Node) Step

// VisibleDeclarations walks outward from place to the tree root, offering
// the visitor every candidate declaration in scope at place. The first Stop
// ends the walk and is returned.
func VisibleDeclarations(place syntax.Node, visit Visitor) Step {
	var lastParent syntax.Node
	for cur := place; cur.IsValid(); lastParent, cur = cur, cur.Parent() {
		if st := processDeclarations(cur, visit, lastParent, place); st.Stopped() {
			return st
		}
	}
	return Continue()
}

// Members offers the visitor the declarations directly exposed by container,
// such as the fields of a record type or the top-level declarations of a
// module.
func Members(container syntax.Node, visit Visitor) Step {
	for _, c := range container.Children() {
		if st := processDeclarations(c, visit, syntax.Node{}, syntax.Node{}); st.Stopped() {
			return st
		}
	}
	return Continue()
}

func processDeclarations(o syntax.Node, visit Visitor, lastParent, place syntax.Node) Step {
	isAncestor := o.IsAncestorOf(place, false)
	switch {
	case o.Kind() == syntax.KindVarSpec:
		if isAncestor {
			// A variable is not in scope inside its own specification.
			return Continue()
		}
		return defaultWalk(o, visit, lastParent, place, false)
	case isAncestor:
		return defaultWalk(o, visit, lastParent, place, true)
	case o.Kind() == syntax.KindBlock:
		return visit(o)
	default:
		return defaultWalk(o, visit, lastParent, place, false)
	}
}

func defaultWalk(o syntax.Node, visit Visitor, lastParent, place syntax.Node, isAncestor bool) Step {
	if o.Kind().IsHidden() {
		return Continue()
	}
	if st := visit(o); st.Stopped() {
		return st
	}
	if !isAncestor && !opensScope(o.Kind()) {
		return Continue()
	}

	children := o.Children()
	if !lastParent.IsValid() || hoists(o.Kind()) {
		for _, c := range children {
			if c == lastParent {
				continue
			}
			if st := processDeclarations(c, visit, syntax.Node{}, place); st.Stopped() {
				return st
			}
		}
		return Continue()
	}

	// Only what precedes the position is visible, nearest first.
	at := -1
	for i, c := range children {
		if c == lastParent {
			at = i
			break
		}
	}
	for i := at - 1; i >= 0; i-- {
		if st := processDeclarations(children[i], visit, syntax.Node{}, place); st.Stopped() {
			return st
		}
	}
	return Continue()
}

// hoists reports whether declarations anywhere in a container are visible
// throughout it, regardless of textual order.
func hoists(k syntax.Kind) bool {
	switch k {
	case syntax.KindFile, syntax.KindModuleDecl, syntax.KindRecordType, syntax.KindFacilityDecl:
		return true
	}
	return false
}

// opensScope reports whether the walk descends into a node that does not
// contain the position. Named units, expressions and leaves are offered but
// their insides stay private.
func opensScope(k syntax.Kind) bool {
	if k.IsLeafKind() || k.IsExpression() || k.IsMathExpression() || k.IsType() {
		return false
	}
	switch k {
	case syntax.KindOperationDecl, syntax.KindFacilityDecl, syntax.KindTypeReprDecl,
		syntax.KindTypeModelDecl, syntax.KindMathDefnDecl, syntax.KindModuleDecl,
		syntax.KindUsesSpec, syntax.KindExemplarDecl, syntax.KindVarDef, syntax.KindParamDef,
		syntax.KindMathVarDecl, syntax.KindArgList:
		return false
	}
	return true
}
