package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"photodedup/internal/dispose"
	"photodedup/internal/models"
)

func sampleGroups() []*models.DuplicateGroup {
	photo1 := &models.ImageRecord{Path: "/p/photo1.jpg", Width: 800, Height: 600, FileSize: 200 * 1024}
	photo1Copy := &models.ImageRecord{Path: "/p/photo1_copy.jpg", Width: 800, Height: 600, FileSize: 150 * 1024}
	return []*models.DuplicateGroup{{
		ID:      1,
		Images:  []*models.ImageRecord{photo1, photo1Copy},
		Keep:    photo1,
		Surplus: []*models.ImageRecord{photo1Copy},
	}}
}

func render(plan *dispose.Plan, res *dispose.Result) string {
	var buf bytes.Buffer
	NewPrinter(&buf).Report(plan, res)
	return buf.String()
}

func TestReport_Preview(t *testing.T) {
	out := render(dispose.NewPlan(sampleGroups(), dispose.Preview), nil)

	for _, want := range []string{
		"Found 1 groups of duplicates:",
		"Group 1 (2 duplicates):",
		"  [KEEP] photo1.jpg - 800x600 - 0.20MB",
		"  [DELETE] photo1_copy.jpg - 800x600 - 0.15MB",
		"Files to delete: 1",
		"Space to save: 0.15 MB",
		"*** DRY RUN MODE - No files were actually processed ***",
		"Run with --execute to actually remove the duplicates",
		"Or use --move-duplicates to move them to 'Duplicates' folder instead",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Deleted:") {
		t.Error("preview must not print outcome lines")
	}
}

func TestReport_Delete(t *testing.T) {
	groups := sampleGroups()
	res := &dispose.Result{Processed: 1, Outcomes: map[string]dispose.Outcome{
		"/p/photo1_copy.jpg": {Image: groups[0].Surplus[0], Action: dispose.Remove},
	}}
	out := render(dispose.NewPlan(groups, dispose.Delete), res)

	if !strings.Contains(out, "    Deleted: photo1_copy.jpg\n") {
		t.Errorf("missing deleted line\n%s", out)
	}
	if strings.Contains(out, "DRY RUN") {
		t.Error("delete mode should not print the dry run notice")
	}
}

func TestReport_Relocate(t *testing.T) {
	groups := sampleGroups()
	res := &dispose.Result{
		Processed:  1,
		CreatedDir: "/p/Duplicates",
		Outcomes: map[string]dispose.Outcome{
			"/p/photo1_copy.jpg": {Image: groups[0].Surplus[0], Action: dispose.Move, Dest: "/p/Duplicates/photo1_copy_1.jpg"},
		},
	}
	out := render(dispose.NewPlan(groups, dispose.Relocate), res)

	for _, want := range []string{
		"Created folder: /p/Duplicates",
		"  [MOVE] photo1_copy.jpg",
		"    Moved: photo1_copy.jpg -> Duplicates/photo1_copy_1.jpg",
		"Files to move to Duplicates folder: 1",
		"Space to organize: 0.15 MB",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestReport_Error(t *testing.T) {
	groups := sampleGroups()
	res := &dispose.Result{Failed: 1, Outcomes: map[string]dispose.Outcome{
		"/p/photo1_copy.jpg": {Image: groups[0].Surplus[0], Action: dispose.Remove, Err: errors.New("permission denied")},
	}}
	out := render(dispose.NewPlan(groups, dispose.Delete), res)

	if !strings.Contains(out, "    Error deleting /p/photo1_copy.jpg: permission denied") {
		t.Errorf("missing error line\n%s", out)
	}
}

func TestReport_NoDuplicates(t *testing.T) {
	out := render(dispose.NewPlan(nil, dispose.Preview), nil)
	if out != "No duplicates found!\n" {
		t.Errorf("output = %q", out)
	}
}

func TestBanner(t *testing.T) {
	tests := []struct {
		name   string
		banner Banner
		want   []string
		absent []string
	}{
		{
			name:   "preview",
			banner: Banner{Mode: dispose.Preview, Threshold: 5},
			want:   []string{"Image Duplicate Remover\n=======================\n", "Mode: Dry run (preview only)", "HEIC/HEIF support not available", "Grouping: anchor"},
			absent: []string{"Batch size"},
		},
		{
			name:   "low memory relocate",
			banner: Banner{Mode: dispose.Relocate, Threshold: 3, LowMemory: true, BatchSize: 50, HEIF: true, Transitive: true},
			want:   []string{"Memory-Optimized Image Duplicate Remover", "Mode: Move duplicates to 'Duplicates' folder", "✓ HEIC/HEIF support enabled", "Similarity threshold: 3", "Batch size: 50 images per batch", "Grouping: transitive"},
		},
		{
			name:   "delete",
			banner: Banner{Mode: dispose.Delete},
			want:   []string{"Mode: Delete duplicates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).Banner(tt.banner)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("banner missing %q\n%s", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("banner should not contain %q", a)
				}
			}
		})
	}
}

func TestMegabytes(t *testing.T) {
	if got := megabytes(1024 * 1024); got != 1 {
		t.Errorf("megabytes(1MiB) = %v, want 1", got)
	}
}
