package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gobwas/glob"

	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/engine/syntax"
)

// Validate checks a defaulted and normalized configuration.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateLibrary,
		validateExclude,
		validateCache,
		validateWatch,
		validateObservability,
		validateProfiles,
	} {
		if err := check(cfg); err != nil {
			return domainerr.Wrap(err, domainerr.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateLibrary(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Library.Roots))
	for i, root := range cfg.Library.Roots {
		if seen[root] {
			return fmt.Errorf("library.roots[%d]: duplicate root %q", i, root)
		}
		seen[root] = true
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			return fmt.Errorf("library.roots[%d]: %q is not a directory", i, root)
		}
	}
	for i, ext := range cfg.Library.Extensions {
		if ext == "." || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("library.extensions[%d]: invalid extension %q", i, ext)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, group := range []struct {
		name     string
		patterns []string
	}{
		{"exclude.dirs", cfg.Exclude.Dirs},
		{"exclude.files", cfg.Exclude.Files},
	} {
		for i, pattern := range group.patterns {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("%s[%d] must not be empty", group.name, i)
			}
			if _, err := glob.Compile(pattern); err != nil {
				return fmt.Errorf("%s[%d]: invalid glob %q: %w", group.name, i, pattern, err)
			}
		}
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0, got %d", cfg.Cache.MaxEntries)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRefreshPerSecond <= 0 {
		return fmt.Errorf("watch.max_refresh_per_second must be > 0")
	}
	if cfg.Watch.Burst <= 0 {
		return fmt.Errorf("watch.burst must be > 0")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddress); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_address: %w", err)
		}
	}
	switch cfg.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("observability.log_level must be one of: debug, info, warn, error")
	}
	return nil
}

func validateProfiles(cfg *Config) error {
	for _, name := range cfg.ProfileNames() {
		p := cfg.Profiles[name]
		ref := "profiles." + name
		if p.Grammar == "" {
			return fmt.Errorf("%s.grammar must not be empty", ref)
		}
		if len(p.Extensions) == 0 {
			return fmt.Errorf("%s.extensions must not be empty", ref)
		}
		for nodeType, kind := range p.Kinds {
			if _, ok := syntax.ParseKind(kind); !ok {
				return fmt.Errorf("%s.kinds.%s: unknown kind %q", ref, nodeType, kind)
			}
		}
		for field, kind := range p.Fields {
			if !strings.Contains(field, ".") {
				return fmt.Errorf("%s.fields: key %q must be parentType.field", ref, field)
			}
			if _, ok := syntax.ParseKind(kind); !ok {
				return fmt.Errorf("%s.fields.%s: unknown kind %q", ref, field, kind)
			}
		}
	}
	return nil
}
