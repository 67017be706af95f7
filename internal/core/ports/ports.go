// Package ports declares the seams between the workspace and its adapters.
package ports

import (
	"context"

	"resolvels/internal/engine/infer"
	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/resolve"
	"resolvels/internal/engine/syntax"
)

// TreeParser turns a source file into a syntax tree.
type TreeParser interface {
	Supports(path string) bool
	Parse(path string, src []byte) (*syntax.Tree, error)
}

// IndexStore persists module index snapshots between runs.
type IndexStore interface {
	SaveIndex(ix *modindex.MemoryIndex) error
	WarmStart(ix *modindex.MemoryIndex) (bool, error)
	Close() error
}

// QueryService answers resolution and inference queries for driving
// adapters such as the CLI.
type QueryService interface {
	Tree(path string) (*syntax.Tree, bool)
	Resolve(ctx context.Context, n syntax.Node) (resolve.Result, error)
	TypeOf(ctx context.Context, n syntax.Node, ictx *infer.Context) (syntax.Node, error)
	MetaTypeOf(ctx context.Context, n syntax.Node, ictx *infer.Context) (syntax.Node, error)
	VisibleDeclarations(ctx context.Context, place syntax.Node) ([]syntax.Node, error)
	References(ctx context.Context, literal syntax.Node) ([]PathTarget, error)
	ResolveUsesPath(ctx context.Context, from, path string) (resolve.Result, error)
	InstantiationContext(ctx context.Context, facility syntax.Node) (*infer.Context, error)
}

// PathTarget pairs one segment reference of a path literal with its target.
type PathTarget struct {
	Reference resolve.PathReference
	Target    resolve.Result
}
