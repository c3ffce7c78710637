package dispose

import (
	"errors"

	"photodedup/internal/models"
)

// DuplicatesDirName is the folder, inside the scanned directory, that
// relocated surplus images are moved to
const DuplicatesDirName = "Duplicates"

// ErrConflictingModes is returned when delete and relocate are both requested
var ErrConflictingModes = errors.New("--execute and --move-duplicates are mutually exclusive")

// Mode selects what happens to surplus images
type Mode int

const (
	// Preview computes and reports the plan without touching the filesystem
	Preview Mode = iota
	// Delete removes surplus images
	Delete
	// Relocate moves surplus images into DuplicatesDirName
	Relocate
)

// ParseMode maps the two action flags to a Mode
func ParseMode(execute, move bool) (Mode, error) {
	switch {
	case execute && move:
		return Preview, ErrConflictingModes
	case move:
		return Relocate, nil
	case execute:
		return Delete, nil
	default:
		return Preview, nil
	}
}

func (m Mode) String() string {
	switch m {
	case Delete:
		return "delete"
	case Relocate:
		return "relocate"
	default:
		return "preview"
	}
}

// Action is what happens to one image
type Action int

// Actions
const (
	Keep Action = iota
	Remove
	Move
)

// Label returns the report label for the action
func (a Action) Label() string {
	switch a {
	case Remove:
		return "DELETE"
	case Move:
		return "MOVE"
	default:
		return "KEEP"
	}
}

// Verb names a surplus action in progress, as used in error messages
func (a Action) Verb() string {
	switch a {
	case Remove:
		return "deleting"
	default:
		return "moving"
	}
}

// Entry pairs an image with its action
type Entry struct {
	Image  *models.ImageRecord
	Action Action
}

// GroupPlan lists the entries of one group in grouping order
type GroupPlan struct {
	Group   *models.DuplicateGroup
	Entries []Entry
}

// Plan is the disposition computed for a run
type Plan struct {
	Mode         Mode
	Groups       []GroupPlan
	SurplusCount int
	SurplusBytes int64
}

// NewPlan labels every image of every group and totals the surplus.
// In preview mode surplus images carry the action they would get under
// deletion.
func NewPlan(groups []*models.DuplicateGroup, mode Mode) *Plan {
	surplusAction := Remove
	if mode == Relocate {
		surplusAction = Move
	}

	plan := &Plan{Mode: mode}
	for _, group := range groups {
		gp := GroupPlan{Group: group}
		for _, img := range group.Images {
			action := surplusAction
			if group.IsKeeper(img) {
				action = Keep
			} else {
				plan.SurplusCount++
				plan.SurplusBytes += img.FileSize
			}
			gp.Entries = append(gp.Entries, Entry{Image: img, Action: action})
		}
		plan.Groups = append(plan.Groups, gp)
	}
	return plan
}
