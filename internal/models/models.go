package models

import (
	"fmt"
	"math/bits"
	"strconv"
)

// HashCode is a 64-bit perceptual fingerprint. Codes are only comparable
// when produced by the same hash algorithm.
type HashCode uint64

// Distance returns the Hamming distance between two codes
func (h HashCode) Distance(other HashCode) int {
	return bits.OnesCount64(uint64(h ^ other))
}

// String renders the code as 16 lowercase hex digits
func (h HashCode) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParseHashCode parses the hex form produced by String
func ParseHashCode(s string) (HashCode, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hash code %q: %w", s, err)
	}
	return HashCode(v), nil
}

// ImageRecord holds the metadata captured for one decoded image file.
// Records are immutable once created; Path is the identity.
type ImageRecord struct {
	Path     string   `json:"path"`
	Hash     HashCode `json:"hash"`
	FileSize int64    `json:"file_size"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Format   string   `json:"format,omitempty"`
}

// PixelCount returns width * height
func (r *ImageRecord) PixelCount() int64 {
	return int64(r.Width) * int64(r.Height)
}

// DuplicateGroup represents a group of visually similar images
type DuplicateGroup struct {
	ID      int            `json:"id"`
	Images  []*ImageRecord `json:"images"`  // Grouping order, anchor first
	Keep    *ImageRecord   `json:"keep"`    // Image that survives disposition
	Surplus []*ImageRecord `json:"surplus"` // Images to delete or relocate
}

// IsKeeper reports whether rec is the group's keeper. Records are compared
// by path so structurally identical copies never alias.
func (g *DuplicateGroup) IsKeeper(rec *ImageRecord) bool {
	return g.Keep != nil && rec != nil && g.Keep.Path == rec.Path
}

// SurplusBytes returns the total size of the surplus images
func (g *DuplicateGroup) SurplusBytes() int64 {
	var total int64
	for _, img := range g.Surplus {
		total += img.FileSize
	}
	return total
}
