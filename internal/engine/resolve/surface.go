package resolve

import (
	"strings"

	"resolvels/internal/engine/syntax"
)

// Unquote strips one '"' from each end of s where present. One-sided quoting
// is tolerated.
func Unquote(s string) string {
	if strings.HasPrefix(s, `"`) {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) {
		s = s[:len(s)-1]
	}
	return s
}

// DeclName returns the name a declaration introduces, or "".
func DeclName(decl syntax.Node) string {
	switch decl.Kind() {
	case syntax.KindUsesSpec:
		return UsesName(decl)
	case syntax.KindInvalid:
		return ""
	}
	if id := decl.ChildOfKind(syntax.KindIdentifier); id.IsValid() {
		return id.Text()
	}
	if decl.IsLeaf() {
		return strings.TrimSpace(decl.Text())
	}
	return ""
}

// UsesAlias returns the alias identifier of a uses specification, if any.
func UsesAlias(spec syntax.Node) syntax.Node {
	if spec.Kind() != syntax.KindUsesSpec {
		return syntax.Node{}
	}
	return spec.ChildOfKind(syntax.KindIdentifier)
}

// UsesName is the name a uses specification binds: its alias when present,
// else the last segment of its path.
func UsesName(spec syntax.Node) string {
	if alias := UsesAlias(spec); alias.IsValid() {
		return alias.Text()
	}
	segs := Segments(spec.ChildOfKind(syntax.KindUsesString))
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1].Text
}

// TypeText renders a type node on one line with whitespace runs collapsed and
// no spaces around dots.
func TypeText(n syntax.Node) string {
	text := strings.Join(strings.Fields(n.Text()), " ")
	text = strings.ReplaceAll(text, " .", ".")
	return strings.ReplaceAll(text, ". ", ".")
}

// PathTextRange is the range of a path literal without its quotes. An empty
// literal yields an empty range, never a negative one.
func PathTextRange(n syntax.Node) syntax.Range {
	r := n.Range()
	text := n.Text()
	start, end := r.Start, r.End
	if strings.HasPrefix(text, `"`) {
		start++
	}
	if len(text) > 1 && strings.HasSuffix(text, `"`) {
		end--
	}
	return syntax.NewRange(start, end)
}

// ModuleSpecTextRange is the range of a module identifier literal without
// quotes.
func ModuleSpecTextRange(n syntax.Node) syntax.Range {
	return PathTextRange(n)
}

// PrevDot reports whether the visible leaf right before n is a '.' token.
func PrevDot(n syntax.Node) bool {
	return n.PrevVisibleLeaf().Kind() == syntax.KindDot
}

// Segment is one '/'-separated component of a uses path.
type Segment struct {
	Text  string
	Range syntax.Range
	Index int
}

// Segments splits a path literal into its non-empty segments, with ranges in
// tree offsets.
func Segments(n syntax.Node) []Segment {
	if !n.IsValid() {
		return nil
	}
	r := PathTextRange(n)
	path := r.Substring(n.Tree().Source())
	var out []Segment
	offset := r.Start
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			out = append(out, Segment{
				Text:  part,
				Range: syntax.Range{Start: offset, End: offset + len(part)},
				Index: len(out),
			})
		}
		offset += len(part) + 1
	}
	return out
}
