package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"photodedup/internal/models"
)

// SQLiteStore keeps records in a transient on-disk sqlite index so only
// the current batch is held in memory. The database file is removed on Close.
type SQLiteStore struct {
	db      *sql.DB
	dbPath  string
	pending []*models.ImageRecord
}

const schema = `
CREATE TABLE images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT UNIQUE NOT NULL,
	hash INTEGER NOT NULL,
	file_size INTEGER NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	format TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_images_hash ON images(hash);
`

// NewSQLiteStore creates a fresh index file in dir (the OS temp dir when
// dir is empty).
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	f, err := os.CreateTemp(dir, "photodedup-*.db")
	if err != nil {
		return nil, fmt.Errorf("failed to create index file: %w", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) init() error {
	// The index never outlives the run, durability is not needed
	if _, err := s.db.Exec(`PRAGMA synchronous = OFF`); err != nil {
		return fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Path returns the location of the index file
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Add queues rec for the next Flush
func (s *SQLiteStore) Add(rec *models.ImageRecord) error {
	s.pending = append(s.pending, rec)
	return nil
}

// Flush writes queued records in a single transaction
func (s *SQLiteStore) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO images (path, hash, file_size, width, height, format)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range s.pending {
		// Cast uint64 to int64 for SQLite compatibility
		if _, err := stmt.Exec(
			rec.Path,
			int64(rec.Hash),
			rec.FileSize,
			rec.Width,
			rec.Height,
			rec.Format,
		); err != nil {
			return fmt.Errorf("failed to insert image %s: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Hashes implements Reader
func (s *SQLiteStore) Hashes() ([]models.HashCode, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT hash FROM images GROUP BY hash ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashes: %w", err)
	}
	defer rows.Close()

	var hashes []models.HashCode
	for rows.Next() {
		var hashInt int64
		if err := rows.Scan(&hashInt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hashes = append(hashes, models.HashCode(uint64(hashInt)))
	}
	return hashes, rows.Err()
}

// ByHash implements Reader
func (s *SQLiteStore) ByHash(hash models.HashCode) ([]*models.ImageRecord, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s.queryRecords(`
		SELECT path, hash, file_size, width, height, format
		FROM images
		WHERE hash = ?
		ORDER BY id
	`, int64(hash))
}

// All implements Reader
func (s *SQLiteStore) All() ([]*models.ImageRecord, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s.queryRecords(`
		SELECT path, hash, file_size, width, height, format
		FROM images
		ORDER BY id
	`)
}

// Len implements Reader
func (s *SQLiteStore) Len() (int, error) {
	if err := s.Flush(); err != nil {
		return 0, err
	}
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) queryRecords(query string, args ...any) ([]*models.ImageRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var records []*models.ImageRecord
	for rows.Next() {
		rec := &models.ImageRecord{}
		var hashInt int64
		if err := rows.Scan(
			&rec.Path,
			&hashInt,
			&rec.FileSize,
			&rec.Width,
			&rec.Height,
			&rec.Format,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Hash = models.HashCode(uint64(hashInt))
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database and deletes the index file
func (s *SQLiteStore) Close() error {
	s.pending = nil
	err := s.db.Close()
	if rmErr := os.Remove(s.dbPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = fmt.Errorf("failed to remove index file: %w", rmErr)
	}
	return err
}
