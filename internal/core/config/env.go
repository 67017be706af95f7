package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies RESOLVELS_[SECTION]_[KEY] environment overrides.
// RESOLVELS_LIBRARY_ROOTS is a path-list separated by the OS list separator.
func ApplyEnvOverrides(cfg *Config) {
	setEnvList(&cfg.Library.Roots, "RESOLVELS_LIBRARY_ROOTS")
	setEnvString(&cfg.Index.DBPath, "RESOLVELS_INDEX_DB_PATH")
	setEnvBool(&cfg.Index.Persist, "RESOLVELS_INDEX_PERSIST")
	setEnvInt(&cfg.Cache.MaxEntries, "RESOLVELS_CACHE_MAX_ENTRIES")
	setEnvBool(&cfg.Watch.Enabled, "RESOLVELS_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "RESOLVELS_WATCH_DEBOUNCE")
	setEnvString(&cfg.Observability.MetricsAddress, "RESOLVELS_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "RESOLVELS_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.LogLevel, "RESOLVELS_OBSERVABILITY_LOG_LEVEL")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		var out []string
		for _, part := range filepath.SplitList(val) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = d
		}
	}
}
