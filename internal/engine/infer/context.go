package infer

import "resolvels/internal/engine/syntax"

// Context carries hypothetical substitutions for a query: a declaration
// bound here answers with the bound node instead of its declared type or
// meta-type. Results computed under a Context are never cached.
type Context struct {
	bindings map[syntax.Node]syntax.Node
}

func NewContext() *Context {
	return &Context{bindings: make(map[syntax.Node]syntax.Node)}
}

// Bind substitutes value for decl.
func (c *Context) Bind(decl, value syntax.Node) {
	c.bindings[decl] = value
}

// Lookup returns the substitution for decl.
func (c *Context) Lookup(decl syntax.Node) (syntax.Node, bool) {
	if c == nil {
		return syntax.Node{}, false
	}
	v, ok := c.bindings[decl]
	return v, ok
}

func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.bindings)
}

// InstantiationContext binds the parameters of the module a facility
// instantiates to the facility's arguments, in order. Extra parameters or
// arguments are left unbound. It returns an empty context when the
// specification cannot be resolved or its tree is not loaded.
func (e *Engine) InstantiationContext(facility syntax.Node) *Context {
	ctx := NewContext()
	spec := e.resolver.Specification(facility)
	if !spec.IsFile() {
		return ctx
	}
	tree, ok := e.resolver.Tree(spec.Path)
	if !ok {
		return ctx
	}
	params := moduleParams(tree.Root().ChildOfKind(syntax.KindModuleDecl))
	args := facilityArgs(facility)
	for i := 0; i < len(params) && i < len(args); i++ {
		ctx.Bind(params[i], args[i])
	}
	return ctx
}

func moduleParams(module syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, decl := range module.ChildrenOfKind(syntax.KindParamDecl) {
		out = append(out, decl.ChildrenOfKind(syntax.KindParamDef)...)
	}
	return out
}

// facilityArgs lists the argument expressions of the facility's first
// argument list.
func facilityArgs(facility syntax.Node) []syntax.Node {
	var out []syntax.Node
	for _, c := range facility.ChildOfKind(syntax.KindArgList).Children() {
		k := c.Kind()
		if k.IsExpression() || k.IsType() || k.IsMathExpression() {
			out = append(out, c)
		}
	}
	return out
}
