package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"photodedup/internal/dispose"
	"photodedup/internal/hash"
	"photodedup/internal/match"
	"photodedup/internal/pipeline"
	"photodedup/internal/scan"
)

var (
	execute        bool
	moveDuplicates bool
	similarity     int
	batchSize      int
	lowMemory      bool
	transitive     bool
	autoOrient     bool
	verbose        bool
	noProgress     bool
)

var rootCmd = &cobra.Command{
	Use:   "photodedup <folder>",
	Short: "Find and remove near-duplicate images",
	Long: `photodedup finds near-duplicate images in a folder and keeps the best copy.

It computes a perceptual hash (pHash) for every image directly inside the
folder, groups images whose hashes are within the similarity threshold, and
keeps the image with the most pixels in each group (larger file, then name,
breaks ties). Without --execute or --move-duplicates nothing is changed.

Example usage:
  photodedup ./photos                       # Preview duplicate groups
  photodedup ./photos --similarity 3        # Stricter matching
  photodedup ./photos --execute             # Delete duplicates
  photodedup ./photos --move-duplicates     # Move duplicates to ./photos/Duplicates
  photodedup ./photos --low-memory          # Keep the hash index on disk`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&execute, "execute", false, "Delete duplicates (default is a dry run)")
	flags.BoolVar(&moveDuplicates, "move-duplicates", false, "Move duplicates to a 'Duplicates' folder instead of deleting")
	flags.IntVar(&similarity, "similarity", match.DefaultThreshold, fmt.Sprintf("Hamming distance threshold (0-%d, lower = stricter)", match.MaxThreshold))
	flags.IntVar(&batchSize, "batch-size", scan.DefaultBatchSize, "Images per batch in low-memory mode")
	flags.BoolVar(&lowMemory, "low-memory", false, "Keep the hash index in a temporary sqlite file")
	flags.BoolVar(&transitive, "transitive", false, "Group transitively instead of around anchor images")
	flags.BoolVar(&autoOrient, "auto-orient", false, "Apply EXIF orientation before hashing")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
}

func newLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// codecOptions holds hasher options contributed by optional codec builds
var codecOptions []hash.Option

func newHasher() *hash.Hasher {
	opts := append([]hash.Option{hash.WithAutoOrient(autoOrient)}, codecOptions...)
	return hash.NewHasher(opts...)
}

func runRoot(cmd *cobra.Command, args []string) error {
	mode, err := dispose.ParseMode(execute, moveDuplicates)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr())
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithOutput(cmd.OutOrStdout()),
		pipeline.WithHasher(newHasher()),
	}
	if !noProgress {
		bar := newProgress(cmd.ErrOrStderr())
		defer bar.Close()
		opts = append(opts,
			pipeline.WithProgress(bar.Update),
			// the report follows hashing, keep it clear of the bar
			pipeline.WithStageObserver(func(s pipeline.Stage) {
				if s == pipeline.Grouping {
					bar.Close()
				}
			}),
		)
	}

	cfg := pipeline.Config{
		Dir:        args[0],
		Threshold:  similarity,
		Mode:       mode,
		BatchSize:  batchSize,
		LowMemory:  lowMemory,
		Transitive: transitive,
	}
	_, err = pipeline.NewRunner(opts...).Run(cfg)
	return err
}
