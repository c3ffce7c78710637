package match

import (
	"fmt"

	"photodedup/internal/models"
	"photodedup/internal/storage"
)

// AnchorMatcher groups images around anchor hashes. Distinct hashes are
// visited in first-insertion order; each hash not yet claimed opens a group
// and claims every later unclaimed hash within the threshold of it.
//
// Membership is measured against the anchor only. A hash close to a member
// but farther than the threshold from the anchor does not join; it may
// anchor a group of its own later.
type AnchorMatcher struct {
	threshold int
}

// NewAnchorMatcher creates a new AnchorMatcher
func NewAnchorMatcher(threshold int) *AnchorMatcher {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &AnchorMatcher{threshold: threshold}
}

// FindGroups implements Matcher
func (m *AnchorMatcher) FindGroups(store storage.Reader) ([]*models.DuplicateGroup, error) {
	hashes, err := store.Hashes()
	if err != nil {
		return nil, fmt.Errorf("failed to list hashes: %w", err)
	}

	processed := make([]bool, len(hashes))
	var members [][]*models.ImageRecord

	for i, anchor := range hashes {
		if processed[i] {
			continue
		}
		processed[i] = true

		matched := []models.HashCode{anchor}
		for j := i + 1; j < len(hashes); j++ {
			if processed[j] {
				continue
			}
			if anchor.Distance(hashes[j]) <= m.threshold {
				matched = append(matched, hashes[j])
				processed[j] = true
			}
		}

		imgs, err := expand(store, matched)
		if err != nil {
			return nil, err
		}
		members = append(members, imgs)
	}

	return buildGroups(members), nil
}

// GetThreshold returns the current threshold
func (m *AnchorMatcher) GetThreshold() int {
	return m.threshold
}
