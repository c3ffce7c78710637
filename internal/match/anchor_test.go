package match

import (
	"testing"

	"photodedup/internal/models"
)

func TestAnchorMatcher_Empty(t *testing.T) {
	groups, err := NewAnchorMatcher(5).FindGroups(memStore(t, nil))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if groups != nil {
		t.Errorf("expected nil for empty input, got %v", groups)
	}
}

func TestAnchorMatcher_SingleImage(t *testing.T) {
	images := []*models.ImageRecord{{Path: "a.jpg", Hash: 0b1111}}
	groups, err := NewAnchorMatcher(5).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if groups != nil {
		t.Errorf("expected nil for single image, got %v", groups)
	}
}

func TestAnchorMatcher_NoDuplicates(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "a.jpg", Hash: 0b0000000000},
		{Path: "b.jpg", Hash: 0b1111111111}, // distance > 2
	}
	groups, err := NewAnchorMatcher(2).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups for distant images, got %d", len(groups))
	}
}

func TestAnchorMatcher_ExactDuplicatesAtZero(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "a.jpg", Hash: 0b1111},
		{Path: "b.jpg", Hash: 0b1111}, // same hash
		{Path: "c.jpg", Hash: 0b1110}, // distance 1
	}
	groups, err := NewAnchorMatcher(0).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Images) != 2 {
		t.Errorf("expected 2 images in group, got %d", len(groups[0].Images))
	}
}

func TestAnchorMatcher_PhotoCopyScenario(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "/dir/photo1.jpg", Hash: 0xABCD, Width: 800, Height: 600, FileSize: 200 * 1024},
		{Path: "/dir/photo1_copy.jpg", Hash: 0xABCD, Width: 800, Height: 600, FileSize: 150 * 1024},
	}
	groups, err := NewAnchorMatcher(5).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Images) != 2 {
		t.Fatalf("expected one group of 2, got %v", groupPaths(groups))
	}
	if groups[0].Keep.Path != "/dir/photo1.jpg" {
		t.Errorf("keep = %s, want /dir/photo1.jpg", groups[0].Keep.Path)
	}
	if len(groups[0].Surplus) != 1 || groups[0].Surplus[0].Path != "/dir/photo1_copy.jpg" {
		t.Errorf("surplus = %v, want photo1_copy.jpg", groups[0].Surplus)
	}
}

// C is within the threshold of B but not of the anchor A, so it stays out
// of A's group. Hamming distance obeys the triangle inequality, so the
// distances are A-B 3, B-C 3, A-C 6.
func TestAnchorMatcher_NotTransitive(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "A.jpg", Hash: 0b000000, Width: 1920, Height: 1080, FileSize: 500},
		{Path: "B.jpg", Hash: 0b000111, Width: 960, Height: 540, FileSize: 120},
		{Path: "C.jpg", Hash: 0b111111, Width: 960, Height: 540, FileSize: 110},
	}
	if d := images[1].Hash.Distance(images[2].Hash); d != 3 {
		t.Fatalf("fixture: B-C distance = %d, want 3", d)
	}

	groups, err := NewAnchorMatcher(5).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %v", groupPaths(groups))
	}
	paths := groupPaths(groups)[0]
	if len(paths) != 2 || paths[0] != "A.jpg" || paths[1] != "B.jpg" {
		t.Errorf("group = %v, want [A.jpg B.jpg]", paths)
	}
	if groups[0].Keep.Path != "A.jpg" {
		t.Errorf("keep = %s, want A.jpg", groups[0].Keep.Path)
	}

	// The transitive matcher chains all three
	groups, err = NewTransitiveMatcher(5).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Images) != 3 {
		t.Errorf("transitive grouping = %v, want one group of 3", groupPaths(groups))
	}
}

// A later anchor may form a second group out of hashes that were close to
// members of an earlier group.
func TestAnchorMatcher_SecondAnchor(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "a.jpg", Hash: 0b00000000},
		{Path: "b.jpg", Hash: 0b00000011}, // 2 from a
		{Path: "c.jpg", Hash: 0b00001111}, // 4 from a, 2 from b
		{Path: "d.jpg", Hash: 0b00111111}, // 6 from a, 2 from c
	}
	groups, err := NewAnchorMatcher(2).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	got := groupPaths(groups)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %v", got)
	}
	if got[0][0] != "a.jpg" || got[0][1] != "b.jpg" || got[1][0] != "c.jpg" || got[1][1] != "d.jpg" {
		t.Errorf("groups = %v, want [[a b] [c d]]", got)
	}
}

func TestAnchorMatcher_MultipleGroupsKeepInsertionOrder(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "c.jpg", Hash: 0xFFFFFFFFFFFFFFFF},
		{Path: "a.jpg", Hash: 0x0000000000000000},
		{Path: "b.jpg", Hash: 0x0000000000000001}, // group with a
		{Path: "d.jpg", Hash: 0xFFFFFFFFFFFFFFFE}, // group with c
	}
	groups, err := NewAnchorMatcher(1).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	got := groupPaths(groups)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0][0] != "c.jpg" || got[1][0] != "a.jpg" {
		t.Errorf("groups should follow insertion order, got %v", got)
	}
}

func TestAnchorMatcher_SameHashExpandsAllMembers(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "a.jpg", Hash: 0x10},
		{Path: "x.jpg", Hash: 0xF000000000000000},
		{Path: "b.jpg", Hash: 0x11},
		{Path: "c.jpg", Hash: 0x10},
		{Path: "d.jpg", Hash: 0x11},
	}
	groups, err := NewAnchorMatcher(1).FindGroups(memStore(t, images))
	if err != nil {
		t.Fatalf("FindGroups failed: %v", err)
	}
	got := groupPaths(groups)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %v", got)
	}
	want := []string{"a.jpg", "c.jpg", "b.jpg", "d.jpg"}
	if len(got[0]) != len(want) {
		t.Fatalf("group = %v, want %v", got[0], want)
	}
	for i := range want {
		if got[0][i] != want[i] {
			t.Errorf("group = %v, want %v", got[0], want)
			break
		}
	}
}

func TestAnchorMatcher_GroupMembersWithinThresholdOfAnchor(t *testing.T) {
	images := clusteredImages(200, 8, 7)
	for th := 0; th <= MaxThreshold; th++ {
		groups, err := NewAnchorMatcher(th).FindGroups(memStore(t, images))
		if err != nil {
			t.Fatalf("FindGroups failed: %v", err)
		}
		seen := make(map[string]bool)
		for _, g := range groups {
			anchor := g.Images[0].Hash
			for _, img := range g.Images {
				if d := anchor.Distance(img.Hash); d > th {
					t.Errorf("T=%d: %s is %d from its anchor", th, img.Path, d)
				}
				if seen[img.Path] {
					t.Errorf("T=%d: %s appears in two groups", th, img.Path)
				}
				seen[img.Path] = true
			}
		}
	}
}

func TestAnchorMatcher_ZeroSelfDistanceAtAnyThreshold(t *testing.T) {
	images := []*models.ImageRecord{
		{Path: "img.jpg", Hash: 0x123456789ABCDEF0},
		{Path: "img_again.jpg", Hash: 0x123456789ABCDEF0},
	}
	for th := 0; th <= MaxThreshold; th++ {
		groups, err := NewAnchorMatcher(th).FindGroups(memStore(t, images))
		if err != nil {
			t.Fatalf("FindGroups failed: %v", err)
		}
		if len(groups) != 1 || len(groups[0].Images) != 2 {
			t.Errorf("T=%d: identical hashes should share a group", th)
		}
	}
}

// The first hash always anchors, so its group can only grow as the
// threshold is raised. Images sharing a hash are never split.
func TestAnchorMatcher_LooserThresholdGrowsFirstGroup(t *testing.T) {
	images := clusteredImages(150, 5, 99)
	first := images[0].Path

	var prev map[string]bool
	for th := 0; th <= MaxThreshold; th++ {
		groups, err := NewAnchorMatcher(th).FindGroups(memStore(t, images))
		if err != nil {
			t.Fatalf("FindGroups failed: %v", err)
		}

		grouped := make(map[string]int)
		members := make(map[string]bool)
		for _, g := range groups {
			for _, img := range g.Images {
				grouped[img.Path] = g.ID
			}
			if g.Images[0].Path == first {
				for _, img := range g.Images {
					members[img.Path] = true
				}
			}
		}

		for p := range prev {
			if !members[p] {
				t.Errorf("T=%d: %s left the first anchor's group", th, p)
			}
		}
		prev = members

		byHash := make(map[models.HashCode][]string)
		for _, img := range images {
			byHash[img.Hash] = append(byHash[img.Hash], img.Path)
		}
		for h, paths := range byHash {
			if len(paths) < 2 {
				continue
			}
			id := grouped[paths[0]]
			for _, p := range paths[1:] {
				if id == 0 || grouped[p] != id {
					t.Errorf("T=%d: images with hash %s split across groups", th, h)
				}
			}
		}
	}
}

func BenchmarkAnchorMatcher_1000(b *testing.B) {
	store := memStore(b, generateTestImages(1000))
	matcher := NewAnchorMatcher(5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		matcher.FindGroups(store)
	}
}
