package dispose

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"photodedup/internal/fileutil"
	"photodedup/internal/models"
)

// Outcome is the result of acting on one surplus image
type Outcome struct {
	Image  *models.ImageRecord
	Action Action
	Dest   string // Relocate only
	Err    error
}

// Result summarises an executed plan
type Result struct {
	Processed  int
	Failed     int
	CreatedDir string
	Outcomes   map[string]Outcome // keyed by image path
}

// Executor applies a Plan to the filesystem
type Executor struct {
	dir    string
	fs     afero.Fs
	logger logrus.FieldLogger
}

// Option configures an Executor
type Option func(*Executor)

// WithFs sets the filesystem to operate on
func WithFs(fs afero.Fs) Option {
	return func(e *Executor) {
		if fs != nil {
			e.fs = fs
		}
	}
}

// WithLogger sets the logger used for per-file failures
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates an Executor for the scanned directory dir
func NewExecutor(dir string, opts ...Option) *Executor {
	e := &Executor{
		dir:    dir,
		fs:     afero.NewOsFs(),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DuplicatesDir returns the relocation target
func (e *Executor) DuplicatesDir() string {
	return filepath.Join(e.dir, DuplicatesDirName)
}

// Execute performs the plan. Preview plans touch nothing. A failure on one
// file is logged and recorded; the remaining files are still processed.
func (e *Executor) Execute(plan *Plan) *Result {
	res := &Result{Outcomes: make(map[string]Outcome)}
	if plan.Mode == Preview {
		return res
	}

	dirReady := false
	for _, gp := range plan.Groups {
		for _, entry := range gp.Entries {
			if entry.Action == Keep {
				continue
			}

			out := Outcome{Image: entry.Image, Action: entry.Action}
			switch entry.Action {
			case Move:
				if !dirReady {
					created, err := fileutil.EnsureDir(e.fs, e.DuplicatesDir())
					if err != nil {
						out.Err = err
						break
					}
					if created {
						res.CreatedDir = e.DuplicatesDir()
						e.logger.WithField("dir", res.CreatedDir).Debug("created folder")
					}
					dirReady = true
				}
				out.Dest, out.Err = fileutil.MoveFile(e.fs, entry.Image.Path, e.DuplicatesDir())
			case Remove:
				out.Err = e.fs.Remove(entry.Image.Path)
			}

			if out.Err != nil {
				e.logger.WithFields(logrus.Fields{
					"path":   entry.Image.Path,
					"action": entry.Action.Verb(),
				}).WithError(out.Err).Warn("disposition failed")
				res.Failed++
			} else {
				res.Processed++
			}
			res.Outcomes[entry.Image.Path] = out
		}
	}
	return res
}
