package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"photodedup/internal/dispose"
)

const bytesPerMB = 1024 * 1024

// Banner describes the run configuration printed before scanning
type Banner struct {
	HEIF       bool
	Mode       dispose.Mode
	Threshold  int
	LowMemory  bool
	BatchSize  int
	Transitive bool
}

// Printer writes the human-readable report of a run
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

// Banner prints the title and the configuration of the run
func (p *Printer) Banner(b Banner) {
	title := "Image Duplicate Remover"
	if b.LowMemory {
		title = "Memory-Optimized Image Duplicate Remover"
	}
	p.println(title)
	p.println(strings.Repeat("=", len(title)))

	if b.HEIF {
		p.println("✓ HEIC/HEIF support enabled")
	} else {
		p.println("⚠ HEIC/HEIF support not available, .heic and .heif files will be skipped")
	}

	switch b.Mode {
	case dispose.Relocate:
		p.printf("Mode: Move duplicates to '%s' folder\n", dispose.DuplicatesDirName)
	case dispose.Delete:
		p.println("Mode: Delete duplicates")
	default:
		p.println("Mode: Dry run (preview only)")
	}

	p.printf("Similarity threshold: %d (Hamming distance)\n", b.Threshold)
	if b.Transitive {
		p.println("Grouping: transitive")
	} else {
		p.println("Grouping: anchor")
	}
	if b.LowMemory {
		p.printf("Batch size: %d images per batch\n", b.BatchSize)
	}
	p.println()
}

// Scanning announces the folder being scanned
func (p *Printer) Scanning(dir string) {
	p.printf("Scanning folder: %s\n", dir)
}

// Found reports how many candidate files were listed
func (p *Printer) Found(n int) {
	p.printf("Found %d image files\n", n)
}

// Comparing reports how many distinct hashes are about to be grouped
func (p *Printer) Comparing(n int) {
	p.printf("Comparing %d unique hashes...\n", n)
}

// Report prints the groups, the outcome of every processed file and the
// summary. res may be nil for a preview.
func (p *Printer) Report(plan *dispose.Plan, res *dispose.Result) {
	if len(plan.Groups) == 0 {
		p.println("No duplicates found!")
		return
	}

	p.printf("\nFound %d groups of duplicates:\n", len(plan.Groups))
	if res != nil && res.CreatedDir != "" {
		p.printf("Created folder: %s\n", res.CreatedDir)
	}

	for i, gp := range plan.Groups {
		p.printf("\nGroup %d (%d duplicates):\n", i+1, len(gp.Entries))
		for _, entry := range gp.Entries {
			img := entry.Image
			p.printf("  [%s] %s - %dx%d - %.2fMB\n",
				entry.Action.Label(), filepath.Base(img.Path), img.Width, img.Height, megabytes(img.FileSize))
		}

		if res == nil {
			continue
		}
		for _, entry := range gp.Entries {
			out, ok := res.Outcomes[entry.Image.Path]
			if !ok {
				continue
			}
			p.outcome(out)
		}
	}

	p.println("\nSummary:")
	if plan.Mode == dispose.Relocate {
		p.printf("Files to move to %s folder: %d\n", dispose.DuplicatesDirName, plan.SurplusCount)
		p.printf("Space to organize: %.2f MB\n", megabytes(plan.SurplusBytes))
	} else {
		p.printf("Files to delete: %d\n", plan.SurplusCount)
		p.printf("Space to save: %.2f MB\n", megabytes(plan.SurplusBytes))
	}

	if plan.Mode == dispose.Preview {
		p.println("\n*** DRY RUN MODE - No files were actually processed ***")
		p.println("Run with --execute to actually remove the duplicates")
		p.printf("Or use --move-duplicates to move them to '%s' folder instead\n", dispose.DuplicatesDirName)
	}
}

func (p *Printer) outcome(out dispose.Outcome) {
	if out.Err != nil {
		p.printf("    Error %s %s: %v\n", out.Action.Verb(), out.Image.Path, out.Err)
		return
	}
	name := filepath.Base(out.Image.Path)
	switch out.Action {
	case dispose.Move:
		p.printf("    Moved: %s -> %s/%s\n", name, dispose.DuplicatesDirName, filepath.Base(out.Dest))
	case dispose.Remove:
		p.printf("    Deleted: %s\n", name)
	}
}

func megabytes(n int64) float64 {
	return float64(n) / bytesPerMB
}
