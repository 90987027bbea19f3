// ABOUTME: SQLite-backed Store using modernc.org/sqlite
// ABOUTME: Survives restarts so issued tokens stay valid across deploys

package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DiskStore persists entries in a single SQLite table.
type DiskStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewDiskStore opens or creates the database at path. Parent directories
// are created if needed.
func NewDiskStore(path string) (*DiskStore, error) {
	logger := slog.Default().With("component", "kvstore")

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// A single connection serializes writers and keeps Take atomic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			collection TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BLOB NOT NULL,
			expires_at INTEGER,
			PRIMARY KEY (collection, key)
		);

		CREATE INDEX IF NOT EXISTS idx_entries_expires_at ON entries(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &DiskStore{db: db, now: time.Now, logger: logger}
	if err := s.purgeExpired(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("disk store initialized", "path", path)
	return s, nil
}

func (s *DiskStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM entries
		WHERE collection = ? AND key = ? AND (expires_at IS NULL OR expires_at > ?)
	`, collection, key, s.now().UnixNano()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", collection, key, err)
	}
	return value, nil
}

func (s *DiskStore) Put(ctx context.Context, collection, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if exp := expiry(s.now(), ttl); !exp.IsZero() {
		expiresAt = sql.NullInt64{Int64: exp.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (collection, key, value, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, collection, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *DiskStore) Take(ctx context.Context, collection, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM entries WHERE collection = ? AND key = ?
		RETURNING value, expires_at
	`, collection, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("taking %s/%s: %w", collection, key, err)
	}
	if expiresAt.Valid && expiresAt.Int64 <= s.now().UnixNano() {
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *DiskStore) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE collection = ? AND key = ?`, collection, key); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *DiskStore) Close() error {
	return s.db.Close()
}

func (s *DiskStore) purgeExpired(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("purging expired entries: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debug("purged expired entries", "count", n)
	}
	return nil
}
