package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath turns a path into the slash form glob patterns and
// prefix checks compare against. "." and blank input become "".
func NormalizePatternPath(s string) string {
	slashed := strings.ReplaceAll(strings.TrimSpace(s), "\\", "/")
	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return ""
	}
	return strings.TrimPrefix(cleaned, "./")
}

// HasPathPrefix reports whether p is root or lies beneath it. Partial
// component matches such as /lib2 under /lib do not count.
func HasPathPrefix(p, root string) bool {
	p, root = NormalizePatternPath(p), NormalizePatternPath(root)
	switch {
	case p == "" || root == "":
		return p == root
	case p == root:
		return true
	}
	return strings.HasPrefix(p, root+"/")
}

// SortedStringKeys lists the keys of m in ascending order, for stable output.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs writes data to name, creating missing parent
// directories first.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}
