package syntax

import (
	"fmt"
	"strings"
)

// Builder assembles a Tree in document order. It works in one of two modes:
// a synthesizing builder (NewBuilder) appends leaf text to a source buffer it
// owns, while a source builder (NewSourceBuilder) places nodes over an
// existing source using explicit byte offsets.
type Builder struct {
	path   string
	fixed  string
	synth  strings.Builder
	isSrc  bool
	nodes  []nodeData
	stack  []NodeID
	closed bool
	err    error
}

func NewBuilder(path string) *Builder {
	return &Builder{path: path}
}

func NewSourceBuilder(path, source string) *Builder {
	return &Builder{path: path, fixed: source, isSrc: true}
}

func (b *Builder) offset() int {
	if b.isSrc {
		return 0
	}
	return b.synth.Len()
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

func (b *Builder) push(kind Kind, start, end int) NodeID {
	parent := noNode
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
	} else if len(b.nodes) > 0 {
		b.fail("tree already has a root")
		return noNode
	}
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, nodeData{kind: kind, parent: parent, start: start, end: end})
	if parent != noNode {
		b.nodes[parent].children = append(b.nodes[parent].children, id)
	}
	return id
}

// Open starts a composite node at the current end of the synthesized source.
func (b *Builder) Open(kind Kind) NodeID {
	return b.OpenAt(kind, b.offset())
}

// OpenAt starts a composite node at an explicit offset (source mode).
func (b *Builder) OpenAt(kind Kind, start int) NodeID {
	if kind.IsLeafKind() {
		b.fail("%s cannot have children", kind)
	}
	id := b.push(kind, start, start)
	if id != noNode {
		b.stack = append(b.stack, id)
	}
	return id
}

// Close ends the innermost open node at the current end of the source.
func (b *Builder) Close() {
	end := b.offset()
	if len(b.stack) > 0 {
		top := b.nodes[b.stack[len(b.stack)-1]]
		end = top.start
		if n := len(top.children); n > 0 {
			end = b.nodes[top.children[n-1]].end
		}
		if !b.isSrc {
			end = b.synth.Len()
		}
	}
	b.CloseAt(end)
}

// CloseAt ends the innermost open node at an explicit offset.
func (b *Builder) CloseAt(end int) {
	if len(b.stack) == 0 {
		b.fail("close without open node")
		return
	}
	id := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if end < b.nodes[id].start {
		end = b.nodes[id].start
	}
	b.nodes[id].end = end
}

// Leaf appends text to the synthesized source and records a leaf over it.
func (b *Builder) Leaf(kind Kind, text string) NodeID {
	if b.isSrc {
		b.fail("Leaf requires a synthesizing builder; use LeafAt")
		return noNode
	}
	start := b.synth.Len()
	b.synth.WriteString(text)
	return b.push(kind, start, b.synth.Len())
}

// LeafAt records a leaf over an existing source range.
func (b *Builder) LeafAt(kind Kind, start, end int) NodeID {
	if !b.isSrc {
		b.fail("LeafAt requires a source builder")
		return noNode
	}
	if start < 0 || end > len(b.fixed) || end < start {
		b.fail("leaf range [%d:%d] outside source of length %d", start, end, len(b.fixed))
		return noNode
	}
	return b.push(kind, start, end)
}

// Depth returns the number of currently open nodes.
func (b *Builder) Depth() int { return len(b.stack) }

// Finish validates the builder state and returns the tree.
func (b *Builder) Finish() (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.closed {
		return nil, fmt.Errorf("builder already finished")
	}
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("%d unclosed nodes", len(b.stack))
	}
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("empty tree")
	}
	b.closed = true
	source := b.fixed
	if !b.isSrc {
		source = b.synth.String()
	}
	return &Tree{path: b.path, source: source, nodes: b.nodes}, nil
}
