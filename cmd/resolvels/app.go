package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"resolvels/internal/core/config"
	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/core/workspace"
	"resolvels/internal/engine/modindex"
	"resolvels/internal/engine/parser"
	"resolvels/internal/engine/resolve"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/util"
)

type App struct {
	Config    *config.Config
	Registry  *parser.Registry
	Workspace *workspace.Workspace
}

// NewApp wires the parser profiles, the optional index store and the
// workspace described by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	registry.SetLogger(slog.Default())

	opts := []workspace.Option{
		workspace.WithParser(registry),
		workspace.WithLogger(slog.Default()),
	}
	if cfg.Index.Persist {
		store, err := modindex.OpenStore(cfg.Index.DBPath, cfg.Index.Project)
		if err != nil {
			return nil, domainerr.AddContext(domainerr.Wrap(err, domainerr.CodeIndexUnavailable, "open index store"), domainerr.CtxPath, cfg.Index.DBPath)
		}
		opts = append(opts, workspace.WithStore(store))
	}

	ws, err := workspace.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Registry: registry, Workspace: ws}, nil
}

func newRegistry(cfg *config.Config) (*parser.Registry, error) {
	registry, err := parser.NewRegistry(parser.GoProfile())
	if err != nil {
		return nil, err
	}
	for _, name := range cfg.ProfileNames() {
		pc := cfg.Profiles[name]
		p, err := parser.NewProfile(name, pc.Grammar, pc.Extensions, pc.Kinds, pc.Fields)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (a *App) Close() error { return a.Workspace.Close() }

// ResolveUses reports what an import path resolves to from the file at from.
func (a *App) ResolveUses(ctx context.Context, from, path string) (string, error) {
	if from != "" {
		abs, err := filepath.Abs(from)
		if err != nil {
			return "", err
		}
		from = abs
	}
	res, err := a.Workspace.ResolveUsesPath(ctx, from, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s -> %s\n", path, describeResult(res)), nil
}

// Describe reports the node at offset in file together with its resolution,
// static type and meta-type.
func (a *App) Describe(ctx context.Context, file string, offset int) (string, error) {
	tree, err := a.load(file)
	if err != nil {
		return "", err
	}
	n := tree.NodeAt(offset)
	if !n.IsValid() {
		return "", domainerr.AddContext(domainerr.Newf(domainerr.CodeNotFound, "no node at offset %d", offset), domainerr.CtxPath, tree.Path())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "node:      %s %q\n", n, n.Text())
	if occ := resolve.Occurrence(n); occ.IsValid() && occ != n {
		fmt.Fprintf(&b, "reference: %s %q\n", occ, occ.Text())
	}

	res, err := a.Workspace.Resolve(ctx, n)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "resolves:  %s\n", describeResult(res))

	typ, err := a.Workspace.TypeOf(ctx, n, nil)
	if err != nil {
		return "", err
	}
	if typ.IsValid() {
		fmt.Fprintf(&b, "type:      %s\n", resolve.TypeText(typ))
	}

	meta, err := a.Workspace.MetaTypeOf(ctx, n, nil)
	if err != nil {
		return "", err
	}
	if meta.IsValid() {
		fmt.Fprintf(&b, "metatype:  %s\n", meta.Text())
	}
	return b.String(), nil
}

// Scope lists the declarations visible at offset in file, nearest first.
func (a *App) Scope(ctx context.Context, file string, offset int) (string, error) {
	tree, err := a.load(file)
	if err != nil {
		return "", err
	}
	decls, err := a.Workspace.VisibleDeclarations(ctx, tree.NodeAt(offset))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, d := range decls {
		fmt.Fprintf(&b, "%-14s %s\n", d.Kind(), resolve.DeclName(d))
	}
	return b.String(), nil
}

// Dump prints file as an S-expression.
func (a *App) Dump(file string) (string, error) {
	tree, err := a.load(file)
	if err != nil {
		return "", err
	}
	return syntax.WriteSExpr(tree.Root()) + "\n", nil
}

// Summary describes the index and the process.
func (a *App) Summary() string {
	ix := a.Workspace.Index()
	counts := map[string]int{}
	for _, e := range ix.Entries() {
		counts[e.Kind.String()]++
	}
	kinds := util.SortedStringKeys(counts)

	var b strings.Builder
	fmt.Fprintf(&b, "roots:     %s\n", strings.Join(ix.Roots(), ", "))
	for _, k := range kinds {
		fmt.Fprintf(&b, "%-10s %d\n", k+":", counts[k])
	}
	fmt.Fprintf(&b, "profiles:  %s\n", strings.Join(a.Registry.Names(), ", "))
	for _, ps := range a.Registry.PoolStats() {
		fmt.Fprintf(&b, "parser:    %s leased=%d oldest=%s\n", ps.Grammar, ps.Leased, ps.OldestLease)
	}
	mem := util.ReadMem()
	fmt.Fprintf(&b, "heap:      %d MB, %d objects, %d GCs\n", mem.HeapAllocMB, mem.HeapObjects, mem.NumGC)
	return b.String()
}

func (a *App) load(file string) (*syntax.Tree, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	return a.Workspace.Load(abs)
}

func describeResult(res resolve.Result) string {
	if res.Kind != resolve.ResultDecl {
		return res.String()
	}
	r := res.Decl.Range()
	return fmt.Sprintf("%s at %s:%d", res.String(), res.Decl.Tree().Path(), r.Start)
}

