package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"resolvels/internal/core/config"
	"resolvels/internal/shared/observability"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: nearest resolvels.toml)")
	usesPath   = flag.String("uses", "", "Resolve a uses path and exit")
	fromFile   = flag.String("from", "", "File the -uses path is written in")
	at         = flag.Int("at", -1, "Describe the node at this byte offset of the file argument")
	scope      = flag.Bool("scope", false, "List declarations visible at -at")
	dump       = flag.Bool("dump", false, "Print the file argument as an S-expression")
	watch      = flag.Bool("watch", false, "Watch library roots and serve metrics until interrupted")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("resolvels v%s\n", VERSION)
		os.Exit(0)
	}

	// Bootstrap logger until the config says otherwise.
	slog.SetDefault(newLogger("info", *verbose))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Observability.LogLevel, *verbose))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		slog.Error("resolvels failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	app, err := NewApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer app.Close()

	if err := app.Workspace.Open(ctx); err != nil {
		return err
	}

	switch {
	case *usesPath != "":
		s, err := app.ResolveUses(ctx, *fromFile, *usesPath)
		if err != nil {
			return err
		}
		fmt.Fprint(out, s)
		return nil
	case *dump || *at >= 0:
		if flag.NArg() != 1 {
			return fmt.Errorf("-dump and -at need exactly one file argument")
		}
		file := flag.Arg(0)
		var s string
		switch {
		case *dump:
			s, err = app.Dump(file)
		case *scope:
			s, err = app.Scope(ctx, file, *at)
		default:
			s, err = app.Describe(ctx, file, *at)
		}
		if err != nil {
			return err
		}
		fmt.Fprint(out, s)
		return nil
	}

	fmt.Fprint(out, app.Summary())
	if !*watch && !cfg.Watch.Enabled {
		return nil
	}

	if err := app.Workspace.StartWatcher(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if addr := cfg.Observability.MetricsAddress; addr != "" {
		srv := NewObservabilityServer(addr, app.Workspace)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(sctx)
		}()
	}
	slog.Info("watching library roots", "roots", app.Workspace.Index().Roots())
	<-ctx.Done()
	return nil
}

// loadConfig loads path, or the nearest resolvels.toml above the working
// directory, or the defaults when there is none.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.FindConfig(".")
		if path == "" {
			slog.Debug("no config file found, using defaults")
		}
	}
	return config.LoadOrDefault(path)
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
