// Package config loads resolvels.toml.
package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"resolvels/internal/shared/util"
)

const DefaultFileName = "resolvels.toml"

type Config struct {
	Version       int                `toml:"version"`
	Library       Library            `toml:"library"`
	Exclude       Exclude            `toml:"exclude"`
	Index         Index              `toml:"index"`
	Cache         Cache              `toml:"cache"`
	Watch         Watch              `toml:"watch"`
	Observability Observability      `toml:"observability"`
	Profiles      map[string]Profile `toml:"profiles"`
}

// Library lists the directories searched for uses paths and the file
// extensions a module name may omit.
type Library struct {
	Roots      []string `toml:"roots"`
	Extensions []string `toml:"extensions"`
}

// Exclude holds gobwas/glob patterns matched against directory and file
// paths during index scans.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Index struct {
	Persist bool   `toml:"persist"`
	DBPath  string `toml:"db_path"`
	Project string `toml:"project"`
}

type Cache struct {
	MaxEntries int `toml:"max_entries"`
}

type Watch struct {
	Enabled             bool          `toml:"enabled"`
	Debounce            time.Duration `toml:"debounce"`
	MaxRefreshPerSecond float64       `toml:"max_refresh_per_second"`
	Burst               int           `toml:"burst"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
	LogLevel       string `toml:"log_level"`
}

// Profile maps tree-sitter node types of a built-in grammar to syntax kind
// names. Fields keys are "parentType.field".
type Profile struct {
	Grammar    string            `toml:"grammar"`
	Extensions []string          `toml:"extensions"`
	Kinds      map[string]string `toml:"kinds"`
	Fields     map[string]string `toml:"fields"`
}

// Default returns a configuration with every default applied and no library
// roots.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	return util.SortedStringKeys(c.Profiles)
}

// Write encodes cfg as TOML to path, creating parent directories.
func Write(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.WriteFileWithDirs(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
