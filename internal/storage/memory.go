package storage

import "photodedup/internal/models"

// MemoryStore keeps every record in memory. Suitable for small corpora.
type MemoryStore struct {
	records []*models.ImageRecord
	paths   map[string]bool
	byHash  map[models.HashCode][]*models.ImageRecord
	hashes  []models.HashCode
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		paths:  make(map[string]bool),
		byHash: make(map[models.HashCode][]*models.ImageRecord),
	}
}

// Add stores rec immediately; Flush is a no-op for this store
func (s *MemoryStore) Add(rec *models.ImageRecord) error {
	if s.paths[rec.Path] {
		return nil
	}
	s.paths[rec.Path] = true
	s.records = append(s.records, rec)

	if _, seen := s.byHash[rec.Hash]; !seen {
		s.hashes = append(s.hashes, rec.Hash)
	}
	s.byHash[rec.Hash] = append(s.byHash[rec.Hash], rec)
	return nil
}

// Flush implements Store
func (s *MemoryStore) Flush() error {
	return nil
}

// Hashes implements Reader
func (s *MemoryStore) Hashes() ([]models.HashCode, error) {
	out := make([]models.HashCode, len(s.hashes))
	copy(out, s.hashes)
	return out, nil
}

// ByHash implements Reader
func (s *MemoryStore) ByHash(hash models.HashCode) ([]*models.ImageRecord, error) {
	recs := s.byHash[hash]
	out := make([]*models.ImageRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// All implements Reader
func (s *MemoryStore) All() ([]*models.ImageRecord, error) {
	out := make([]*models.ImageRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Len implements Reader
func (s *MemoryStore) Len() (int, error) {
	return len(s.records), nil
}

// Close drops all records
func (s *MemoryStore) Close() error {
	s.records = nil
	s.hashes = nil
	s.paths = make(map[string]bool)
	s.byHash = make(map[models.HashCode][]*models.ImageRecord)
	return nil
}
