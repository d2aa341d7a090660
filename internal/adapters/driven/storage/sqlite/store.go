package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/documind/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/documind/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/logger"
)

// DBFileName is the database file inside the index directory.
const DBFileName = "index.db"

// removeAll is replaced in tests to simulate an undeletable store.
var removeAll = os.RemoveAll

// Options configures Open.
type Options struct {
	// Collection is the collection name. Defaults to domain.DefaultCollection.
	Collection string

	// Now supplies the timestamp for the fresh-namespace fallback.
	Now func() time.Time
}

// VectorIndex is a SQLite-backed vector index holding one collection.
type VectorIndex struct {
	mu         sync.RWMutex
	db         *sql.DB
	dir        string
	collection string
	recovery   domain.RecoveryStep
}

// Open opens the index at dir, recovering from a corrupted or incompatible
// store by wiping it and, failing that, by opening a fresh directory named
// "<dir>_<unix seconds>". The returned step records which attempt succeeded.
func Open(dir string, opts Options) (*VectorIndex, error) {
	if opts.Collection == "" {
		opts.Collection = domain.DefaultCollection
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: empty index directory", domain.ErrInvalidInput)
	}

	idx, err := openAt(dir, opts.Collection)
	if err == nil {
		idx.recovery = domain.RecoveryPrimary
		return idx, nil
	}
	logger.Warn("vector store at %s is unusable: %v", dir, err)

	idx, err = reinitialize(dir, opts.Collection)
	if err == nil {
		logger.Warn("vector store at %s was reset; previous entries are gone", dir)
		idx.recovery = domain.RecoveryReinitialized
		return idx, nil
	}
	logger.Warn("reinitializing vector store at %s failed: %v", dir, err)

	fresh := fmt.Sprintf("%s_%d", dir, opts.Now().Unix())
	idx, err = openAt(fresh, opts.Collection)
	if err == nil {
		logger.Warn("using fresh vector store at %s", fresh)
		idx.recovery = domain.RecoveryFreshNamespace
		return idx, nil
	}

	return nil, fmt.Errorf("%w: %s: %v", domain.ErrIndexUnavailable, fresh, err)
}

// reinitialize deletes dir and opens an empty store in its place.
func reinitialize(dir, collection string) (*VectorIndex, error) {
	if err := removeAll(dir); err != nil {
		return nil, fmt.Errorf("removing %s: %w", dir, err)
	}
	return openAt(dir, collection)
}

// openAt opens, verifies and migrates the store in dir.
func openAt(dir, collection string) (*VectorIndex, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFileName)

	// Open database with WAL mode for concurrent readers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &VectorIndex{db: db, dir: dir, collection: collection}
	if err := idx.verify(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.ensureCollection(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// verify runs SQLite's integrity check.
func (v *VectorIndex) verify() error {
	var result string
	if err := v.db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIncompatibleStore, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: integrity check: %s", domain.ErrIncompatibleStore, result)
	}
	return nil
}

// migrate runs all pending migrations. A store already at a version newer
// than any known migration is rejected.
func (v *VectorIndex) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := v.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: creating schema_migrations table: %v", domain.ErrIncompatibleStore, err)
	}

	var currentVersion int
	row := v.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("%w: getting current version: %v", domain.ErrIncompatibleStore, err)
	}

	files, err := upMigrations(fsys)
	if err != nil {
		return err
	}

	latest := 0
	if len(files) > 0 {
		latest = files[len(files)-1].version
	}
	if currentVersion > latest {
		return fmt.Errorf("%w: schema version %d is newer than supported %d",
			domain.ErrIncompatibleStore, currentVersion, latest)
	}

	for _, m := range files {
		if m.version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}

		if _, err := v.db.Exec(string(content)); err != nil {
			return fmt.Errorf("%w: executing migration %s: %v", domain.ErrIncompatibleStore, m.name, err)
		}
	}

	return nil
}

type migration struct {
	name    string
	version int
}

// upMigrations lists ".up.sql" files ordered by version.
func upMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var out []migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		out = append(out, migration{name: name, version: version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// collectionMetadata is the JSON stored in collections.metadata.
type collectionMetadata struct {
	Space string `json:"hnsw:space"`
}

// ensureCollection creates the collection row if needed and checks that an
// existing one uses cosine distance.
func (v *VectorIndex) ensureCollection() error {
	md, err := json.Marshal(collectionMetadata{Space: vecmath.Space})
	if err != nil {
		return fmt.Errorf("marshalling collection metadata: %w", err)
	}

	_, err = v.db.Exec(`
		INSERT INTO collections (name, metadata) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, v.collection, string(md))
	if err != nil {
		return fmt.Errorf("%w: creating collection: %v", domain.ErrIncompatibleStore, err)
	}

	var raw string
	if err := v.db.QueryRow("SELECT metadata FROM collections WHERE name = ?", v.collection).Scan(&raw); err != nil {
		return fmt.Errorf("%w: reading collection: %v", domain.ErrIncompatibleStore, err)
	}

	var existing collectionMetadata
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return fmt.Errorf("%w: collection metadata: %v", domain.ErrIncompatibleStore, err)
	}
	if existing.Space != vecmath.Space {
		return fmt.Errorf("%w: collection uses %q distance, want %q",
			domain.ErrIncompatibleStore, existing.Space, vecmath.Space)
	}
	return nil
}

// Close closes the database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// Path returns the index directory actually in use.
func (v *VectorIndex) Path() string {
	return v.dir
}

// Recovery returns which open step produced this index.
func (v *VectorIndex) Recovery() domain.RecoveryStep {
	return v.recovery
}

// isMissing reports whether err means the row does not exist.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
