package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReadSExpr builds a Tree from the S-expression interchange form used by
// external parsers and fixtures:
//
//	(File
//	  (ModuleDecl "Facility" "Main"
//	    (UsesList "uses" (UsesSpec (UsesString "\"Stack_Template\"")))))
//
// A list starts with a Kind name. Quoted strings become leaves: "." is a Dot,
// identifier-like text an Identifier and anything else a Token. A leaf kind
// may be spelled explicitly, as in (Token "+"). Consecutive leaves are
// separated by a single synthesized space unless either side is a Dot.
// Text after ';' up to the end of the line is a comment.
func ReadSExpr(path, src string) (*Tree, error) {
	p := &sexpParser{src: src}
	root, err := p.parseList()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	e := &sexpEmitter{b: NewBuilder(path)}
	if err := e.emit(root); err != nil {
		return nil, err
	}
	return e.b.Finish()
}

type sexpItem struct {
	text  string
	isStr bool
	list  *sexpList
}

type sexpList struct {
	kind  Kind
	items []sexpItem
	pos   int
}

type sexpParser struct {
	src string
	pos int
}

func (p *sexpParser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.src[:p.pos], "\n")
	return fmt.Errorf("sexpr line %d: %s", line, fmt.Sprintf(format, args...))
}

func (p *sexpParser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == ';':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *sexpParser) parseList() (*sexpList, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return nil, p.errorf("expected '('")
	}
	start := p.pos
	p.pos++
	p.skipSpace()
	name := p.readSymbol()
	kind, ok := ParseKind(name)
	if !ok {
		return nil, p.errorf("unknown node kind %q", name)
	}
	list := &sexpList{kind: kind, pos: start}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated list for %s", kind)
		}
		switch p.src[p.pos] {
		case ')':
			p.pos++
			return list, nil
		case '(':
			child, err := p.parseList()
			if err != nil {
				return nil, err
			}
			list.items = append(list.items, sexpItem{list: child})
		case '"', '`':
			s, err := p.readString()
			if err != nil {
				return nil, err
			}
			list.items = append(list.items, sexpItem{text: s, isStr: true})
		default:
			return nil, p.errorf("unexpected %q", p.src[p.pos])
		}
	}
}

func (p *sexpParser) readSymbol() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '(' || c == ')' || c == '"' || c == ';' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *sexpParser) readString() (string, error) {
	quote := p.src[p.pos]
	end := p.pos + 1
	for end < len(p.src) {
		c := p.src[end]
		if c == '\\' && quote == '"' {
			end += 2
			continue
		}
		if c == quote {
			break
		}
		end++
	}
	if end >= len(p.src) {
		return "", p.errorf("unterminated string")
	}
	raw := p.src[p.pos : end+1]
	s, err := strconv.Unquote(raw)
	if err != nil {
		return "", p.errorf("bad string %s: %v", raw, err)
	}
	p.pos = end + 1
	return s, nil
}

type sexpEmitter struct {
	b       *Builder
	pending []Kind
	prev    Kind
	started bool
}

func (e *sexpEmitter) flushOpens() {
	for _, k := range e.pending {
		e.b.Open(k)
	}
	e.pending = e.pending[:0]
}

func (e *sexpEmitter) leaf(kind Kind, text string) {
	if e.started && text != "" && kind != KindDot && e.prev != KindDot {
		e.b.Leaf(KindWhitespace, " ")
	}
	e.flushOpens()
	e.b.Leaf(kind, text)
	if text != "" {
		e.prev = kind
		e.started = true
	}
}

func (e *sexpEmitter) emit(l *sexpList) error {
	if l.kind.IsLeafKind() {
		if len(l.items) != 1 || !l.items[0].isStr {
			return fmt.Errorf("sexpr: %s at offset %d must hold exactly one string", l.kind, l.pos)
		}
		e.leaf(l.kind, l.items[0].text)
		return nil
	}
	e.pending = append(e.pending, l.kind)
	for _, item := range l.items {
		if item.isStr {
			e.leaf(ClassifyLeaf(item.text), item.text)
			continue
		}
		if err := e.emit(item.list); err != nil {
			return err
		}
	}
	e.flushOpens()
	e.b.Close()
	return nil
}

// ClassifyLeaf picks the leaf kind for bare text. Reserved words are tokens.
func ClassifyLeaf(text string) Kind {
	if text == "." {
		return KindDot
	}
	if isIdentifier(text) && !IsKeyword(text) {
		return KindIdentifier
	}
	return KindToken
}

var keywords = map[string]bool{
	"Concept": true, "Corollary": true, "Def": true, "Definition": true, "Enhancement": true,
	"Facility": true, "Family": true, "Operation": true, "Precis": true, "Procedure": true,
	"Realization": true, "Record": true, "Recursive": true, "Theorem": true, "Type": true,
	"Var": true, "alters": true, "and": true, "as": true, "by": true, "changing": true,
	"clears": true, "constraint": true, "convention": true, "correspondence": true,
	"decreasing": true, "do": true, "else": true, "end": true, "ensures": true,
	"evaluates": true, "exemplar": true, "extended": true, "externally": true,
	"finalization": true, "for": true, "from": true, "if": true, "implicit": true,
	"initialization": true, "is": true, "maintaining": true, "modeled": true, "not": true,
	"or": true, "preserves": true, "realized": true, "replaces": true, "represented": true,
	"requires": true, "restores": true, "then": true, "updates": true, "uses": true,
	"while": true,
}

// IsKeyword reports whether text is a reserved word of the language.
func IsKeyword(text string) bool { return keywords[text] }

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if r != '_' && !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		if r != '_' && r != '\'' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return utf8.ValidString(s)
}

// WriteSExpr renders the subtree rooted at n in the form read by ReadSExpr.
// Hidden leaves are dropped, so reading the output back yields the same
// structure with normalized spacing.
func WriteSExpr(n Node) string {
	var b strings.Builder
	writeSExpr(&b, n, 0)
	return b.String()
}

func writeSExpr(b *strings.Builder, n Node, depth int) {
	if !n.IsValid() {
		return
	}
	if n.IsLeaf() && n.Kind().IsLeafKind() {
		fmt.Fprintf(b, "(%s %s)", n.Kind(), strconv.Quote(n.Text()))
		return
	}
	b.WriteString("(")
	b.WriteString(n.Kind().String())
	for _, c := range n.Children() {
		if c.Kind().IsHidden() {
			continue
		}
		if c.IsLeaf() && c.Kind().IsLeafKind() && ClassifyLeaf(c.Text()) == c.Kind() {
			b.WriteString(" ")
			b.WriteString(strconv.Quote(c.Text()))
			continue
		}
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth+1))
		writeSExpr(b, c, depth+1)
	}
	b.WriteString(")")
}
