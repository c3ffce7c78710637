package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"photodedup/internal/dispose"
	"photodedup/internal/hash"
	"photodedup/internal/match"
	"photodedup/internal/models"
	"photodedup/internal/report"
	"photodedup/internal/scan"
	"photodedup/internal/storage"
)

// ErrInvalidDirectory is returned when the target is missing or not a directory
var ErrInvalidDirectory = errors.New("is not a valid directory")

// Stage is a step of a run. Stages only move forward.
type Stage int

// Stages in execution order
const (
	Scanning Stage = iota
	Hashing
	Grouping
	Disposing
	Reporting
)

func (s Stage) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Hashing:
		return "hashing"
	case Grouping:
		return "grouping"
	case Disposing:
		return "disposing"
	case Reporting:
		return "reporting"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Config holds the settings of one run
type Config struct {
	Dir        string
	Threshold  int
	Mode       dispose.Mode
	BatchSize  int
	LowMemory  bool
	Transitive bool
	TempDir    string // sqlite index location, OS default when empty
}

// Validate checks the directory and the threshold
func (c Config) Validate(fs afero.Fs) error {
	info, err := fs.Stat(c.Dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s %w", c.Dir, ErrInvalidDirectory)
	}
	return match.ValidateThreshold(c.Threshold)
}

// Hasher is the hashing collaborator of a run
type Hasher interface {
	scan.ImageHasher
	Capabilities() hash.Capabilities
}

// Summary is everything a run produced
type Summary struct {
	Stats  scan.Stats
	Groups []*models.DuplicateGroup
	Plan   *dispose.Plan
	Result *dispose.Result // nil in preview mode
}

// Runner wires the scanner, store, matcher and executor together
type Runner struct {
	fs         afero.Fs
	hasher     Hasher
	logger     logrus.FieldLogger
	printer    *report.Printer
	progressFn func(scanned, total int, current string)
	observer   func(Stage)
}

// Option configures a Runner
type Option func(*Runner)

// WithFs sets the filesystem for listing, hashing and disposition
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		if fs != nil {
			r.fs = fs
		}
	}
}

// WithHasher replaces the default hasher
func WithHasher(h Hasher) Option {
	return func(r *Runner) {
		if h != nil {
			r.hasher = h
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOutput sets where the report is written
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.printer = report.NewPrinter(w)
	}
}

// WithProgress sets a per-file progress callback
func WithProgress(fn func(scanned, total int, current string)) Option {
	return func(r *Runner) {
		r.progressFn = fn
	}
}

// WithStageObserver sets a callback invoked on entering every stage
func WithStageObserver(fn func(Stage)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// NewRunner creates a Runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		fs:      afero.NewOsFs(),
		logger:  logrus.StandardLogger(),
		printer: report.NewPrinter(os.Stdout),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hasher == nil {
		r.hasher = hash.NewHasher(hash.WithFs(r.fs))
	}
	return r
}

func (r *Runner) enter(s Stage) {
	r.logger.WithField("stage", s.String()).Debug("entering stage")
	if r.observer != nil {
		r.observer(s)
	}
}

// Run executes one scan of cfg.Dir
func (r *Runner) Run(cfg Config) (*Summary, error) {
	if err := cfg.Validate(r.fs); err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = scan.DefaultBatchSize
	}

	r.printer.Banner(report.Banner{
		HEIF:       r.hasher.Capabilities().HEIF,
		Mode:       cfg.Mode,
		Threshold:  cfg.Threshold,
		LowMemory:  cfg.LowMemory,
		BatchSize:  cfg.BatchSize,
		Transitive: cfg.Transitive,
	})

	scanner := scan.NewScanner(
		scan.WithFs(r.fs),
		scan.WithHasher(r.hasher),
		scan.WithBatchSize(cfg.BatchSize),
		scan.WithProgress(r.progressFn),
		scan.WithLogger(r.logger),
	)

	r.enter(Scanning)
	r.printer.Scanning(cfg.Dir)
	paths, err := scanner.List(cfg.Dir)
	if err != nil {
		return nil, err
	}
	r.printer.Found(len(paths))

	store, err := r.openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			r.logger.WithError(err).Warn("failed to close index")
		}
	}()

	r.enter(Hashing)
	stats, err := scanner.Ingest(paths, store)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	r.enter(Grouping)
	if cfg.LowMemory {
		hashes, err := store.Hashes()
		if err != nil {
			return nil, fmt.Errorf("failed to list hashes: %w", err)
		}
		r.printer.Comparing(len(hashes))
	}
	groups, err := newMatcher(cfg).FindGroups(store)
	if err != nil {
		return nil, fmt.Errorf("failed to group images: %w", err)
	}

	summary := &Summary{
		Stats:  stats,
		Groups: groups,
		Plan:   dispose.NewPlan(groups, cfg.Mode),
	}

	if cfg.Mode != dispose.Preview {
		r.enter(Disposing)
		ex := dispose.NewExecutor(cfg.Dir, dispose.WithFs(r.fs), dispose.WithLogger(r.logger))
		summary.Result = ex.Execute(summary.Plan)
	}

	r.enter(Reporting)
	r.printer.Report(summary.Plan, summary.Result)
	return summary, nil
}

func (r *Runner) openStore(cfg Config) (storage.Store, error) {
	if !cfg.LowMemory {
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewSQLiteStore(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	r.logger.WithField("path", store.Path()).Debug("opened index")
	return store, nil
}

func newMatcher(cfg Config) match.Matcher {
	if cfg.Transitive {
		return match.NewTransitiveMatcher(cfg.Threshold)
	}
	return match.NewAnchorMatcher(cfg.Threshold)
}
