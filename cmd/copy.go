package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tutils/tcopy"
	"github.com/tutils/tcopy/progress"
)

var (
	copyShowProgress bool
	copyTruncate     bool
	copySync         bool
)

// copyCmd represents the copy command
var copyCmd = &cobra.Command{
	Use:   "copy SRC DST",
	Short: "Copy a file",
	Long: `Copy SRC into DST chunk by chunk, SRC may be - for stdin. For example:
  tcopy copy ./big.iso /mnt/backup/big.iso --progress --buffer-size=1048576`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := bufferSize()
		if err != nil {
			return err
		}
		n, err := copyFile(args[0], args[1], size, copyOptions{
			truncate:    copyTruncate,
			sync:        copySync,
			progress:    copyShowProgress,
			progressOut: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)

	flags := copyCmd.Flags()
	flags.BoolVarP(&copyShowProgress, "progress", "p", false, "show progress")
	flags.BoolVar(&copyTruncate, "truncate", true, "truncate DST before copying")
	flags.BoolVar(&copySync, "sync", false, "fsync DST after copying")
}

type copyOptions struct {
	truncate    bool
	sync        bool
	progress    bool
	progressOut io.Writer
}

// CopyFile copies srcPath over dstPath the way "tcopy copy" does without
// progress output, for embedders such as the C library.
func CopyFile(srcPath, dstPath string, bufferSize int) (int64, error) {
	return copyFile(srcPath, dstPath, bufferSize, copyOptions{truncate: true})
}

func copyFile(srcPath, dstPath string, bufferSize int, opts copyOptions) (int64, error) {
	if bufferSize <= 0 {
		return 0, errors.Errorf("buffer-size must be positive, got %d", bufferSize)
	}

	var src io.Reader
	var total int64
	if srcPath == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(srcPath)
		if err != nil {
			return 0, errors.Wrap(err, "open source")
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return 0, errors.Wrap(err, "stat source")
		}
		if info.Mode().IsRegular() {
			total = info.Size()
		}
		if dstInfo, err := os.Stat(dstPath); err == nil && os.SameFile(info, dstInfo) {
			return 0, errors.Errorf("%s and %s are the same file", srcPath, dstPath)
		}
		src = f
	}

	flag := os.O_RDWR | os.O_CREATE
	if opts.truncate {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(dstPath, flag, 0644)
	if err != nil {
		return 0, errors.Wrap(err, "open destination")
	}
	defer f.Close()

	log := logrus.WithFields(logrus.Fields{"src": srcPath, "dst": dstPath})
	onProgress := progress.LogEvery(log, 0)
	var reporter *progress.Reporter
	if opts.progress {
		reporter = progress.NewReporter(
			progress.WithOutput(opts.progressOut),
			progress.WithTotal(total),
			progress.WithName(srcPath),
			progress.WithLogger(log),
		)
		onProgress = tcopy.MultiProgress(reporter.Report, onProgress)
	}

	n, err := tcopy.CopyBufferProgress(src, tcopy.NewBufferedDestination(f, bufferSize), bufferSize, onProgress)
	if err != nil {
		f.Close()
		if rerr := os.Remove(dstPath); rerr != nil {
			log.WithError(rerr).Warn("Failed to remove incomplete destination")
		}
		return n, errors.Wrapf(err, "copy failed after %d bytes", n)
	}
	if reporter != nil {
		reporter.Done(n)
	}
	if opts.sync {
		if err := f.Sync(); err != nil {
			return n, errors.Wrap(err, "sync destination")
		}
	}
	log.WithField("bytes", n).Debug("Copy complete")
	return n, nil
}
