package match

import (
	"fmt"
	"sort"

	"photodedup/internal/models"
	"photodedup/internal/storage"
)

// TransitiveMatcher groups images by the transitive closure of the
// distance <= threshold relation. Unlike AnchorMatcher, chains of near
// hashes end up in one group.
type TransitiveMatcher struct {
	threshold int
}

// NewTransitiveMatcher creates a new TransitiveMatcher
func NewTransitiveMatcher(threshold int) *TransitiveMatcher {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &TransitiveMatcher{threshold: threshold}
}

// FindGroups implements Matcher. Groups are ordered by the insertion
// position of their earliest hash.
func (m *TransitiveMatcher) FindGroups(store storage.Reader) ([]*models.DuplicateGroup, error) {
	hashes, err := store.Hashes()
	if err != nil {
		return nil, fmt.Errorf("failed to list hashes: %w", err)
	}

	uf := newUnionFind(len(hashes))
	for i := range hashes {
		for j := i + 1; j < len(hashes); j++ {
			if hashes[i].Distance(hashes[j]) <= m.threshold {
				uf.union(i, j)
			}
		}
	}

	// Collect hash indices per root, roots ordered by first member
	byRoot := make(map[int][]int)
	var roots []int
	for i := range hashes {
		root := uf.find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	members := make([][]*models.ImageRecord, 0, len(roots))
	for _, root := range roots {
		indices := byRoot[root]
		sort.Ints(indices)

		matched := make([]models.HashCode, len(indices))
		for k, idx := range indices {
			matched[k] = hashes[idx]
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
func (m *TransitiveMatcher) GetThreshold() int {
	return m.threshold
}

// Union-Find data structure for efficient grouping
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	rank := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: rank}
}

func (uf *unionFind) find(x int) int {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x]) // Path compression
	}
	return uf.parent[x]
}

func (uf *unionFind) union(x, y int) {
	px, py := uf.find(x), uf.find(y)
	if px == py {
		return
	}
	// Union by rank
	if uf.rank[px] < uf.rank[py] {
		px, py = py, px
	}
	uf.parent[py] = px
	if uf.rank[px] == uf.rank[py] {
		uf.rank[px]++
	}
}
