package scan

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"photodedup/internal/hash"
	"photodedup/internal/models"
	"photodedup/internal/storage"
)

// DefaultBatchSize is the number of images hashed between store flushes
const DefaultBatchSize = 100

// ImageHasher builds image records from files
type ImageHasher interface {
	// Classify reports whether a path can be hashed, returning nil,
	// hash.ErrUnsupported or hash.ErrCodecUnavailable
	Classify(path string) error
	HashImage(path string) (*models.ImageRecord, error)
}

// Stats counts what happened during ingestion
type Stats struct {
	Found       int // candidate files listed
	Indexed     int // records added to the store
	Skipped     int // files that failed to open or decode
	Unsupported int // files whose codec is not installed
	Batches     int
}

// Scanner lists a folder for images and feeds their records to a store
type Scanner struct {
	fs         afero.Fs
	hasher     ImageHasher
	batchSize  int
	progressFn func(scanned, total int, current string)
	logger     logrus.FieldLogger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithFs sets the filesystem used for listing
func WithFs(fs afero.Fs) Option {
	return func(s *Scanner) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithHasher sets the hasher
func WithHasher(h ImageHasher) Option {
	return func(s *Scanner) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithBatchSize sets the number of images between flushes
func WithBatchSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithProgress sets a progress callback
func WithProgress(fn func(scanned, total int, current string)) Option {
	return func(s *Scanner) {
		s.progressFn = fn
	}
}

// WithLogger sets the logger for skipped files
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a new Scanner
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		fs:        afero.NewOsFs(),
		batchSize: DefaultBatchSize,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = hash.NewHasher(hash.WithFs(s.fs))
	}
	return s
}

// BatchSize returns the configured batch size
func (s *Scanner) BatchSize() int {
	return s.batchSize
}

// List returns the image files directly inside dir, sorted by name.
// Sub-directories and files with unsupported extensions are skipped.
func (s *Scanner) List(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if errors.Is(s.hasher.Classify(path), hash.ErrUnsupported) {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Ingest hashes paths in order and adds the records to store, flushing after
// every batch. Files that cannot be hashed are logged and skipped; only store
// errors abort.
func (s *Scanner) Ingest(paths []string, store storage.Store) (Stats, error) {
	stats := Stats{Found: len(paths)}

	for start := 0; start < len(paths); start += s.batchSize {
		end := min(start+s.batchSize, len(paths))
		stats.Batches++

		for i, path := range paths[start:end] {
			rec, err := s.hasher.HashImage(path)
			switch {
			case errors.Is(err, hash.ErrCodecUnavailable):
				s.logger.Warnf("Skipping %s: HEIC support not installed", path)
				stats.Unsupported++
			case err != nil:
				s.logger.Warnf("Error processing %s: %v", path, err)
				stats.Skipped++
			default:
				if err := store.Add(rec); err != nil {
					return stats, fmt.Errorf("failed to store %s: %w", path, err)
				}
				stats.Indexed++
			}

			if s.progressFn != nil {
				s.progressFn(start+i+1, len(paths), path)
			}
		}

		if err := store.Flush(); err != nil {
			return stats, fmt.Errorf("failed to flush batch %d: %w", stats.Batches, err)
		}
		s.logger.WithFields(logrus.Fields{
			"batch":   stats.Batches,
			"indexed": stats.Indexed,
		}).Debug("batch committed")
	}

	return stats, nil
}
