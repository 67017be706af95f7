package parser

import (
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/shared/util"
)

// grammars lists the tree-sitter grammars compiled into the binary.
var grammars = map[string]func() *sitter.Language{
	"go": func() *sitter.Language { return sitter.NewLanguage(tree_sitter_go.Language()) },
}

// GrammarNames returns the names of the built-in grammars, sorted.
func GrammarNames() []string {
	return util.SortedStringKeys(grammars)
}

func HasGrammar(name string) bool {
	_, ok := grammars[name]
	return ok
}

// GrammarLoader hands out one language value and parser pool per grammar,
// created on first use.
type GrammarLoader struct {
	mu        sync.Mutex
	languages map[string]*sitter.Language
	pools     map[string]*ParserPool
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		pools:     make(map[string]*ParserPool),
	}
}

func (gl *GrammarLoader) Language(grammar string) (*sitter.Language, error) {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	return gl.languageLocked(grammar)
}

func (gl *GrammarLoader) languageLocked(grammar string) (*sitter.Language, error) {
	if lang, ok := gl.languages[grammar]; ok {
		return lang, nil
	}
	load, ok := grammars[grammar]
	if !ok {
		return nil, domainerr.AddContext(
			domainerr.Newf(domainerr.CodeNotSupported, "grammar %q is not built in", grammar),
			"grammar", grammar)
	}
	lang := load()
	gl.languages[grammar] = lang
	return lang, nil
}

// Pool returns the parser pool for grammar.
func (gl *GrammarLoader) Pool(grammar string) (*ParserPool, error) {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	if p, ok := gl.pools[grammar]; ok {
		return p, nil
	}
	lang, err := gl.languageLocked(grammar)
	if err != nil {
		return nil, err
	}
	p := NewParserPool(lang)
	gl.pools[grammar] = p
	return p, nil
}

// PoolStats describes the parser pool of one grammar.
type PoolStats struct {
	Grammar     string
	Leased      int
	OldestLease time.Duration
}

// Stats reports every pool created so far, sorted by grammar.
func (gl *GrammarLoader) Stats() []PoolStats {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	out := make([]PoolStats, 0, len(gl.pools))
	for _, name := range util.SortedStringKeys(gl.pools) {
		p := gl.pools[name]
		out = append(out, PoolStats{Grammar: name, Leased: p.Stats(), OldestLease: p.OldestLease()})
	}
	return out
}
