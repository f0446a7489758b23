// Package sqlite persists sync state and the embedding cache in a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/state/sqlite/migrations"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure the interfaces are implemented.
var (
	_ driven.WatermarkStore = (*Store)(nil)
	_ driven.EmbeddingCache = (*Store)(nil)
)

// Store is the SQLite-backed state store. It serves both the
// watermark/alias state and the embedding cache from one database
// file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a store at the specified data directory.
// If dataDir is empty, defaults to ~/.corpus/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpus", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// WAL mode lets the cache take concurrent reads during a sync.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Watermark returns the last committed library version.
func (s *Store) Watermark(ctx context.Context) (int64, error) {
	var watermark int64
	row := s.db.QueryRowContext(ctx, "SELECT watermark FROM sync_state WHERE id = 1")
	if err := row.Scan(&watermark); err != nil {
		return 0, fmt.Errorf("reading watermark: %w", err)
	}
	return watermark, nil
}

// Advance commits a new library version.
func (s *Store) Advance(ctx context.Context, version int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sync_state SET watermark = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1",
		version)
	if err != nil {
		return fmt.Errorf("advancing watermark: %w", err)
	}
	return nil
}

// ArchiveAliases returns the acronym -> archive name map.
func (s *Store) ArchiveAliases(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT alias, archive FROM archive_aliases")
	if err != nil {
		return nil, fmt.Errorf("reading aliases: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var alias, archive string
		if err := rows.Scan(&alias, &archive); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		aliases[alias] = archive
	}
	return aliases, rows.Err()
}

// SaveArchiveAliases replaces the alias map.
func (s *Store) SaveArchiveAliases(ctx context.Context, aliases map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM archive_aliases"); err != nil {
		return fmt.Errorf("clearing aliases: %w", err)
	}
	for alias, archive := range aliases {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO archive_aliases (alias, archive) VALUES (?, ?)",
			alias, archive)
		if err != nil {
			return fmt.Errorf("inserting alias %q: %w", alias, err)
		}
	}
	return tx.Commit()
}

// Get returns the cached vector and true, or nil and false.
func (s *Store) Get(ctx context.Context, namespace, contentHash string) ([]float32, bool, error) {
	var blob []byte
	row := s.db.QueryRowContext(ctx,
		"SELECT vector FROM embedding_cache WHERE namespace = ? AND content_hash = ?",
		namespace, contentHash)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cached vector: %w", err)
	}
	return decodeVector(blob), true, nil
}

// Put stores a vector. Writing an existing key is a no-op, which
// keeps concurrent writers first-writer-wins.
func (s *Store) Put(ctx context.Context, namespace, contentHash string, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO embedding_cache (namespace, content_hash, vector) VALUES (?, ?, ?)",
		namespace, contentHash, encodeVector(vector))
	if err != nil {
		return fmt.Errorf("caching vector: %w", err)
	}
	return nil
}

// migrate runs any pending .up.sql migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
	}
	return nil
}

// encodeVector packs float32s little-endian into a blob.
func encodeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func decodeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
