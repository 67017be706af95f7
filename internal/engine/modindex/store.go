package modindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// Store persists index snapshots so a session can answer uses lookups before
// its first full scan of the library roots has finished.
type Store struct {
	db         *sql.DB
	projectKey string
}

// Snapshot is a persisted index state.
type Snapshot struct {
	Roots   []string
	SavedAt time.Time
	Entries []Entry
}

func OpenStore(path, projectKey string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("index store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("index store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index store directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite index store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite index store %q: %w", cleanPath, err)
	}
	if err := migrateIndexSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}
	return &Store{db: db, projectKey: key}, nil
}

func migrateIndexSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS index_snapshots (
  project_key TEXT    NOT NULL PRIMARY KEY,
  roots       TEXT    NOT NULL DEFAULT '',
  saved_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS index_entries (
  project_key TEXT    NOT NULL,
  path        TEXT    NOT NULL,
  kind        INTEGER NOT NULL,
  PRIMARY KEY (project_key, path)
);
`)
	if err != nil {
		return fmt.Errorf("ensure index schema: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot for the store's project.
func (s *Store) Save(snap Snapshot) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM index_entries WHERE project_key = ?`, s.projectKey); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO index_entries (project_key, path, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range snap.Entries {
		if _, err := stmt.Exec(s.projectKey, e.Path, int(e.Kind)); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Path, err)
		}
	}

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.Exec(`INSERT INTO index_snapshots (project_key, roots, saved_at) VALUES (?, ?, ?)
ON CONFLICT(project_key) DO UPDATE SET roots = excluded.roots, saved_at = excluded.saved_at`,
		s.projectKey, strings.Join(snap.Roots, "\n"), savedAt.UnixNano()); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. ok is false when nothing was saved yet.
func (s *Store) Load() (snap Snapshot, ok bool, err error) {
	if s == nil || s.db == nil {
		return Snapshot{}, false, fmt.Errorf("store not initialized")
	}
	var roots string
	var savedAt int64
	row := s.db.QueryRow(`SELECT roots, saved_at FROM index_snapshots WHERE project_key = ?`, s.projectKey)
	if err := row.Scan(&roots, &savedAt); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read snapshot header: %w", err)
	}
	if roots != "" {
		snap.Roots = strings.Split(roots, "\n")
	}
	snap.SavedAt = time.Unix(0, savedAt)

	rows, err := s.db.Query(`SELECT path, kind FROM index_entries WHERE project_key = ? ORDER BY path`, s.projectKey)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		var kind int
		if err := rows.Scan(&e.Path, &kind); err != nil {
			return Snapshot{}, false, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = EntryKind(kind)
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, false, fmt.Errorf("iterate entries: %w", err)
	}
	return snap, true, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveIndex snapshots ix into the store.
func (s *Store) SaveIndex(ix *MemoryIndex) error {
	return s.Save(Snapshot{Roots: ix.Roots(), Entries: ix.Entries()})
}

// WarmStart loads a stored snapshot into ix when it was taken over the same
// roots. It reports whether the snapshot was applied.
func (s *Store) WarmStart(ix *MemoryIndex) (bool, error) {
	snap, ok, err := s.Load()
	if err != nil || !ok {
		return false, err
	}
	if !sameRoots(snap.Roots, ix.Roots()) {
		return false, nil
	}
	ix.Load(snap.Entries)
	return true, nil
}

func sameRoots(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if filepath.Clean(a[i]) != filepath.Clean(b[i]) {
			return false
		}
	}
	return true
}
