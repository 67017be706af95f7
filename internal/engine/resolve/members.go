package resolve

import "resolvels/internal/engine/syntax"

// maxTypeHops bounds chains of type aliases and untyped initializers
// followed during member lookup.
const maxTypeHops = 32

// memberOf looks up name among the members exposed by a resolved qualifier.
func (r *Resolver) memberOf(s *session, target Result, name string) Result {
	switch target.Kind {
	case ResultDir:
		if r.index == nil {
			return Unresolved()
		}
		if e, ok := r.index.Lookup(target.Path, name); ok {
			return entryResult(e)
		}
		return Unresolved()
	case ResultFile, ResultDecl:
		container := r.memberContainer(s, target)
		if !container.IsValid() {
			return Unresolved()
		}
		st := Members(container, func(n syntax.Node) Step {
			if n.Kind().IsDeclaration() && DeclName(n) == name {
				return Stop(Declaration(n))
			}
			return Continue()
		})
		if st.Stopped() {
			return st.Result()
		}
	}
	return Unresolved()
}

// memberContainer maps a qualifier target to the node whose declarations
// are its members: a module for files, uses clauses and facilities, a
// record type for typed declarations.
func (r *Resolver) memberContainer(s *session, target Result) syntax.Node {
	for hops := 0; hops < maxTypeHops; hops++ {
		switch target.Kind {
		case ResultFile:
			tree, ok := r.Tree(target.Path)
			if !ok {
				return syntax.Node{}
			}
			root := tree.Root()
			if module := root.ChildOfKind(syntax.KindModuleDecl); module.IsValid() {
				return module
			}
			return root
		case ResultDecl:
		default:
			return syntax.Node{}
		}

		decl := target.Decl
		switch decl.Kind() {
		case syntax.KindModuleDecl, syntax.KindRecordType:
			return decl
		case syntax.KindUsesSpec:
			target = r.resolve(s, decl.ChildOfKind(syntax.KindUsesString))
		case syntax.KindFacilityDecl:
			target = r.specification(s, decl)
		default:
			t := declaredTypeNode(decl)
			if !t.IsValid() {
				init := initializerOf(decl)
				if !init.IsValid() {
					return syntax.Node{}
				}
				target = r.resolve(s, init)
				continue
			}
			if rec := recordOf(t); rec.IsValid() {
				return rec
			}
			if t.Kind() != syntax.KindTypeReferenceExp {
				return syntax.Node{}
			}
			target = r.resolve(s, t)
		}
	}
	return syntax.Node{}
}

// declaredTypeNode is the explicitly written type of a declaration.
func declaredTypeNode(decl syntax.Node) syntax.Node {
	isType := syntax.Kind.IsType
	switch decl.Kind() {
	case syntax.KindVarDef:
		return decl.Parent().FirstChildMatching(isType)
	case syntax.KindParamDef:
		return decl.Parent().FirstChildMatching(isType)
	case syntax.KindTypeReprDecl, syntax.KindOperationDecl:
		return decl.FirstChildMatching(isType)
	case syntax.KindExemplarDecl:
		return decl.AncestorOfKind(syntax.KindTypeReprDecl).FirstChildMatching(isType)
	}
	return syntax.Node{}
}

// initializerOf is the reference an untyped variable is initialized from:
// the initializer itself, or the last element of an initializer chain.
func initializerOf(decl syntax.Node) syntax.Node {
	if decl.Kind() != syntax.KindVarDef {
		return syntax.Node{}
	}
	init := decl.Parent().FirstChildMatching(syntax.Kind.IsExpression)
	for init.Kind() == syntax.KindSelectorExp {
		init = init.LastChildMatching(syntax.Kind.IsExpression)
	}
	if KindOf(init) == RefNone {
		return syntax.Node{}
	}
	return init
}

func recordOf(t syntax.Node) syntax.Node {
	switch t.Kind() {
	case syntax.KindRecordType:
		return t
	case syntax.KindType:
		return t.ChildOfKind(syntax.KindRecordType)
	}
	return syntax.Node{}
}
