package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	domainerr "resolvels/internal/core/errors"
)

// Load reads, defaults, normalizes and validates the file at path. Relative
// library roots and the index database path are taken relative to the
// file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := domainerr.CodeInternal
		if os.IsNotExist(err) {
			code = domainerr.CodeNotFound
		}
		return nil, domainerr.AddContext(domainerr.Wrap(err, code, "read config"), domainerr.CtxPath, path)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, domainerr.AddContext(domainerr.Wrap(err, domainerr.CodeValidationError, "decode config"), domainerr.CtxPath, path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, domainerr.AddContext(
			domainerr.Newf(domainerr.CodeValidationError, "unknown config keys: %s", strings.Join(keys, ", ")),
			domainerr.CtxPath, path)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg, filepath.Dir(path))

	if err := Validate(&cfg); err != nil {
		return nil, domainerr.AddContext(err, domainerr.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default with
// environment overrides otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	ApplyEnvOverrides(cfg)
	wd, _ := os.Getwd()
	normalize(cfg, wd)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Library.Extensions) == 0 {
		cfg.Library.Extensions = []string{".resolve"}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".idea", "out"}
	}
	if strings.TrimSpace(cfg.Index.DBPath) == "" {
		cfg.Index.DBPath = ".resolvels/index.db"
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 50_000
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRefreshPerSecond <= 0 {
		cfg.Watch.MaxRefreshPerSecond = 2
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "resolvels"
	}
	if strings.TrimSpace(cfg.Observability.LogLevel) == "" {
		cfg.Observability.LogLevel = "info"
	}
}

func normalize(cfg *Config, base string) {
	roots := make([]string, 0, len(cfg.Library.Roots))
	for _, root := range cfg.Library.Roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		roots = append(roots, ResolveRelative(base, root))
	}
	cfg.Library.Roots = roots

	exts := make([]string, 0, len(cfg.Library.Extensions))
	for _, ext := range cfg.Library.Extensions {
		if ext = normalizeExt(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	cfg.Library.Extensions = exts

	cfg.Index.DBPath = ResolveRelative(base, cfg.Index.DBPath)
	cfg.Index.Project = strings.TrimSpace(cfg.Index.Project)
	if cfg.Index.Project == "" {
		cfg.Index.Project = filepath.Base(filepath.Clean(base))
	}
	cfg.Observability.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Observability.LogLevel))

	for name, p := range cfg.Profiles {
		p.Grammar = strings.TrimSpace(p.Grammar)
		for i, ext := range p.Extensions {
			p.Extensions[i] = normalizeExt(ext)
		}
		cfg.Profiles[name] = p
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
