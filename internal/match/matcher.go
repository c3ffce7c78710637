package match

import (
	"errors"
	"fmt"

	"photodedup/internal/models"
	"photodedup/internal/storage"
)

const (
	// DefaultThreshold is the default Hamming distance threshold
	DefaultThreshold = 5
	// MaxThreshold is the most permissive threshold accepted
	MaxThreshold = 10
)

// ErrInvalidThreshold is returned for thresholds outside 0..MaxThreshold
var ErrInvalidThreshold = errors.New("invalid similarity threshold")

// Matcher is the interface for duplicate grouping strategies
type Matcher interface {
	FindGroups(store storage.Reader) ([]*models.DuplicateGroup, error)
}

// ValidateThreshold checks that t is within 0..MaxThreshold
func ValidateThreshold(t int) error {
	if t < 0 || t > MaxThreshold {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidThreshold, t, MaxThreshold)
	}
	return nil
}

// buildGroups turns member lists into resolved groups with sequential IDs,
// dropping singletons. Input order is preserved.
func buildGroups(members [][]*models.ImageRecord) []*models.DuplicateGroup {
	var groups []*models.DuplicateGroup
	groupID := 1

	for _, imgs := range members {
		if len(imgs) < 2 {
			continue
		}

		group := &models.DuplicateGroup{
			ID:     groupID,
			Images: imgs,
		}
		Resolve(group)
		groups = append(groups, group)
		groupID++
	}

	return groups
}

// expand collects the records of every hash in order
func expand(store storage.Reader, hashes []models.HashCode) ([]*models.ImageRecord, error) {
	var out []*models.ImageRecord
	for _, h := range hashes {
		recs, err := store.ByHash(h)
		if err != nil {
			return nil, fmt.Errorf("failed to load images for hash %s: %w", h, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// better reports whether a should be kept over b: more pixels, then larger
// file, then lexicographically smaller path.
func better(a, b *models.ImageRecord) bool {
	if pa, pb := a.PixelCount(), b.PixelCount(); pa != pb {
		return pa > pb
	}
	if a.FileSize != b.FileSize {
		return a.FileSize > b.FileSize
	}
	return a.Path < b.Path
}

// SelectKeeper returns the best image of a non-empty group. The result does
// not depend on the order of images.
func SelectKeeper(images []*models.ImageRecord) *models.ImageRecord {
	if len(images) == 0 {
		return nil
	}
	best := images[0]
	for _, img := range images[1:] {
		if better(img, best) {
			best = img
		}
	}
	return best
}

// Resolve sets the group's keeper and surplus. Surplus keeps grouping order.
func Resolve(group *models.DuplicateGroup) {
	group.Keep = SelectKeeper(group.Images)
	group.Surplus = nil
	if group.Keep == nil {
		return
	}
	for _, img := range group.Images {
		if !group.IsKeeper(img) {
			group.Surplus = append(group.Surplus, img)
		}
	}
}
