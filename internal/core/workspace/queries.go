package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resolvels/internal/core/ports"
	"resolvels/internal/engine/infer"
	"resolvels/internal/engine/resolve"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/observability"
)

// query wraps one workspace query in a span and the duration histogram.
func (w *Workspace) query(ctx context.Context, name string, n syntax.Node) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	attrs := []attribute.KeyValue{attribute.String("workspace.id", w.ID)}
	if n.IsValid() {
		attrs = append(attrs,
			attribute.String("node.kind", n.Kind().String()),
			attribute.String("node.path", n.Tree().Path()),
			attribute.Int("node.offset", n.Range().Start),
		)
	}
	_, span := observability.Tracer.Start(ctx, "workspace."+name, trace.WithAttributes(attrs...))
	start := time.Now()
	return func() {
		observability.QueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		span.End()
	}, nil
}

func (w *Workspace) Resolve(ctx context.Context, n syntax.Node) (resolve.Result, error) {
	done, err := w.query(ctx, "resolve", n)
	if err != nil {
		return resolve.Unresolved(), err
	}
	defer done()
	return w.resolver.Resolve(n), nil
}

func (w *Workspace) TypeOf(ctx context.Context, n syntax.Node, ictx *infer.Context) (syntax.Node, error) {
	done, err := w.query(ctx, "type", n)
	if err != nil {
		return syntax.Node{}, err
	}
	defer done()
	return w.engine.TypeOf(n, ictx), nil
}

func (w *Workspace) MetaTypeOf(ctx context.Context, n syntax.Node, ictx *infer.Context) (syntax.Node, error) {
	done, err := w.query(ctx, "metatype", n)
	if err != nil {
		return syntax.Node{}, err
	}
	defer done()
	return w.engine.MetaTypeOf(n, ictx), nil
}

// VisibleDeclarations lists the declarations in scope at place, nearest
// first. A name shadowed by a nearer declaration is listed once.
func (w *Workspace) VisibleDeclarations(ctx context.Context, place syntax.Node) ([]syntax.Node, error) {
	done, err := w.query(ctx, "scope", place)
	if err != nil {
		return nil, err
	}
	defer done()

	var out []syntax.Node
	seen := make(map[string]bool)
	resolve.VisibleDeclarations(place, func(n syntax.Node) resolve.Step {
		if !n.Kind().IsDeclaration() {
			return resolve.Continue()
		}
		name := resolve.DeclName(n)
		if name == "" || seen[name] {
			return resolve.Continue()
		}
		seen[name] = true
		out = append(out, n)
		return resolve.Continue()
	})
	return out, nil
}

// References resolves every segment of a uses string, module spec or
// library spec.
func (w *Workspace) References(ctx context.Context, literal syntax.Node) ([]ports.PathTarget, error) {
	done, err := w.query(ctx, "references", literal)
	if err != nil {
		return nil, err
	}
	defer done()

	refs := resolve.References(literal)
	out := make([]ports.PathTarget, len(refs))
	for i, ref := range refs {
		out[i] = ports.PathTarget{Reference: ref, Target: w.resolver.ResolveReference(ref)}
	}
	return out, nil
}

func (w *Workspace) Specification(ctx context.Context, facility syntax.Node) (resolve.Result, error) {
	done, err := w.query(ctx, "specification", facility)
	if err != nil {
		return resolve.Unresolved(), err
	}
	defer done()
	return w.resolver.Specification(facility), nil
}

func (w *Workspace) InstantiationContext(ctx context.Context, facility syntax.Node) (*infer.Context, error) {
	done, err := w.query(ctx, "instantiation", facility)
	if err != nil {
		return nil, err
	}
	defer done()
	return w.engine.InstantiationContext(facility), nil
}

// ResolveUsesPath resolves an import path as if written in a uses clause of
// a file at from. An empty from resolves against the library roots only.
func (w *Workspace) ResolveUsesPath(ctx context.Context, from, path string) (resolve.Result, error) {
	if from == "" {
		from = filepath.Join(string(filepath.Separator), "uses")
	}
	src := fmt.Sprintf("(File (UsesList (UsesSpec (UsesString %s))))", strconv.Quote(strconv.Quote(path)))
	tree, err := syntax.ReadSExpr(from, src)
	if err != nil {
		return resolve.Unresolved(), fmt.Errorf("build uses clause: %w", err)
	}
	return w.Resolve(ctx, tree.Find(syntax.KindUsesString)[0])
}
