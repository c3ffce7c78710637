package storage

import "photodedup/internal/models"

// Reader is the read side of a metadata store as seen by the matchers
type Reader interface {
	// Hashes returns the distinct hash codes in first-insertion order
	Hashes() ([]models.HashCode, error)
	// ByHash returns the records sharing a hash, in insertion order
	ByHash(hash models.HashCode) ([]*models.ImageRecord, error)
	// All returns every record in insertion order
	All() ([]*models.ImageRecord, error)
	// Len returns the number of stored records
	Len() (int, error)
}

// Store holds the image records of one run. Records are append-only and
// keyed by path; inserting a path twice keeps the first record.
type Store interface {
	Reader
	// Add queues a record. It becomes visible to readers after Flush.
	Add(rec *models.ImageRecord) error
	// Flush commits queued records
	Flush() error
	// Close releases the store and anything it created on disk
	Close() error
}
