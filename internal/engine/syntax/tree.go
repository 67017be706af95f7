package syntax

import (
	"fmt"
	"path/filepath"
)

// NodeID addresses a node inside its Tree's arena.
type NodeID int32

const noNode NodeID = -1

type nodeData struct {
	kind     Kind
	parent   NodeID
	children []NodeID
	start    int
	end      int
}

// Tree is an immutable arena of syntax nodes for a single source file.
// Node 0 is the root.
type Tree struct {
	path   string
	source string
	nodes  []nodeData
}

// Path returns the file path the tree was parsed from. It may be empty for
// in-memory trees.
func (t *Tree) Path() string { return t.path }

// Dir returns the directory containing the tree's file, or "" when the tree has no path.
func (t *Tree) Dir() string {
	if t.path == "" {
		return ""
	}
	return filepath.Dir(t.path)
}

func (t *Tree) Source() string { return t.source }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Root() Node {
	if t == nil || len(t.nodes) == 0 {
		return Node{}
	}
	return Node{tree: t, id: 0}
}

// Node returns the handle for id, or the zero Node when id is out of range.
func (t *Tree) Node(id NodeID) Node {
	if t == nil || id < 0 || int(id) >= len(t.nodes) {
		return Node{}
	}
	return Node{tree: t, id: id}
}

// NodeAt returns the deepest non-hidden node whose range contains offset.
func (t *Tree) NodeAt(offset int) Node {
	cur := t.Root()
	if !cur.IsValid() || !cur.Range().Contains(offset) {
		return Node{}
	}
	for {
		next := Node{}
		for _, child := range cur.Children() {
			if child.Kind().IsHidden() {
				continue
			}
			if child.Range().Contains(offset) {
				next = child
				break
			}
		}
		if !next.IsValid() {
			return cur
		}
		cur = next
	}
}

// Walk visits every node in document order. Returning false from fn skips
// the node's children.
func (t *Tree) Walk(fn func(Node) bool) {
	root := t.Root()
	if !root.IsValid() {
		return
	}
	var walk func(Node)
	walk = func(n Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
}

// Find returns every node of the given kind in document order.
func (t *Tree) Find(kind Kind) []Node {
	var out []Node
	t.Walk(func(n Node) bool {
		if n.Kind() == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Node is a comparable handle on a node in a Tree. The zero value is the
// invalid node and all accessors on it return zero values.
type Node struct {
	tree *Tree
	id   NodeID
}

func (n Node) IsValid() bool { return n.tree != nil }

func (n Node) Tree() *Tree { return n.tree }

func (n Node) ID() NodeID { return n.id }

func (n Node) data() *nodeData { return &n.tree.nodes[n.id] }

func (n Node) Kind() Kind {
	if !n.IsValid() {
		return KindInvalid
	}
	return n.data().kind
}

func (n Node) Parent() Node {
	if !n.IsValid() {
		return Node{}
	}
	p := n.data().parent
	if p == noNode {
		return Node{}
	}
	return Node{tree: n.tree, id: p}
}

func (n Node) ChildCount() int {
	if !n.IsValid() {
		return 0
	}
	return len(n.data().children)
}

func (n Node) Child(i int) Node {
	if !n.IsValid() || i < 0 || i >= len(n.data().children) {
		return Node{}
	}
	return Node{tree: n.tree, id: n.data().children[i]}
}

func (n Node) Children() []Node {
	if !n.IsValid() {
		return nil
	}
	ids := n.data().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}

func (n Node) IsLeaf() bool { return n.ChildCount() == 0 }

// ChildOfKind returns the first direct child with the given kind.
func (n Node) ChildOfKind(kind Kind) Node {
	if !n.IsValid() {
		return Node{}
	}
	for _, id := range n.data().children {
		if n.tree.nodes[id].kind == kind {
			return Node{tree: n.tree, id: id}
		}
	}
	return Node{}
}

// ChildrenOfKind returns the direct children with the given kind.
func (n Node) ChildrenOfKind(kind Kind) []Node {
	if !n.IsValid() {
		return nil
	}
	var out []Node
	for _, id := range n.data().children {
		if n.tree.nodes[id].kind == kind {
			out = append(out, Node{tree: n.tree, id: id})
		}
	}
	return out
}

// FirstChildMatching returns the first direct child for which match is true.
func (n Node) FirstChildMatching(match func(Kind) bool) Node {
	for _, c := range n.Children() {
		if match(c.Kind()) {
			return c
		}
	}
	return Node{}
}

// LastChildMatching returns the last direct child for which match is true.
func (n Node) LastChildMatching(match func(Kind) bool) Node {
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if match(children[i].Kind()) {
			return children[i]
		}
	}
	return Node{}
}

func (n Node) index() int {
	p := n.Parent()
	if !p.IsValid() {
		return -1
	}
	for i, id := range p.data().children {
		if id == n.id {
			return i
		}
	}
	return -1
}

func (n Node) PrevSibling() Node {
	i := n.index()
	if i <= 0 {
		return Node{}
	}
	return n.Parent().Child(i - 1)
}

func (n Node) NextSibling() Node {
	i := n.index()
	if i < 0 {
		return Node{}
	}
	return n.Parent().Child(i + 1)
}

func (n Node) Range() Range {
	if !n.IsValid() {
		return Range{}
	}
	d := n.data()
	return Range{Start: d.start, End: d.end}
}

func (n Node) Text() string {
	if !n.IsValid() {
		return ""
	}
	d := n.data()
	return n.tree.source[d.start:d.end]
}

func (n Node) TextLen() int { return n.Range().Len() }

// IsAncestorOf reports whether n is an ancestor of other. When strict is
// false a node counts as its own ancestor.
func (n Node) IsAncestorOf(other Node, strict bool) bool {
	if !n.IsValid() || !other.IsValid() || n.tree != other.tree {
		return false
	}
	cur := other
	if strict {
		cur = cur.Parent()
	}
	for cur.IsValid() {
		if cur.id == n.id {
			return true
		}
		cur = cur.Parent()
	}
	return false
}

// AncestorOfKind returns the nearest strict ancestor whose kind is one of kinds.
func (n Node) AncestorOfKind(kinds ...Kind) Node {
	for cur := n.Parent(); cur.IsValid(); cur = cur.Parent() {
		k := cur.Kind()
		for _, want := range kinds {
			if k == want {
				return cur
			}
		}
	}
	return Node{}
}

// PrevVisibleLeaf returns the closest leaf preceding n in document order that
// is not whitespace or a comment.
func (n Node) PrevVisibleLeaf() Node {
	for cur := n; cur.IsValid(); cur = cur.Parent() {
		for sib := cur.PrevSibling(); sib.IsValid(); sib = sib.PrevSibling() {
			if leaf := sib.lastVisibleLeaf(); leaf.IsValid() {
				return leaf
			}
		}
	}
	return Node{}
}

func (n Node) lastVisibleLeaf() Node {
	if n.IsLeaf() {
		if n.Kind().IsHidden() {
			return Node{}
		}
		return n
	}
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if leaf := children[i].lastVisibleLeaf(); leaf.IsValid() {
			return leaf
		}
	}
	return Node{}
}

func (n Node) String() string {
	if !n.IsValid() {
		return "<nil>"
	}
	r := n.Range()
	return fmt.Sprintf("%s[%d:%d]", n.Kind(), r.Start, r.End)
}
