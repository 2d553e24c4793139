package progress

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// ReporterOptions is reporter options
type ReporterOptions struct {
	out      io.Writer
	total    int64
	name     string
	interval time.Duration
	logger   *logrus.Entry
}

// ReporterOption is option setter for reporter
type ReporterOption func(*ReporterOptions)

// default reporter options
var (
	DefaultOutput   io.Writer = os.Stderr
	DefaultInterval           = time.Second
)

func newReporterOptions(opts ...ReporterOption) *ReporterOptions {
	opt := &ReporterOptions{
		interval: -1,
	}
	for _, o := range opts {
		o(opt)
	}

	if opt.out == nil {
		opt.out = DefaultOutput
	}
	if opt.interval < 0 {
		opt.interval = DefaultInterval
	}
	if opt.logger == nil {
		opt.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return opt
}

// WithOutput sets where terminal progress lines are drawn
func WithOutput(w io.Writer) ReporterOption {
	return func(opts *ReporterOptions) {
		opts.out = w
	}
}

// WithTotal sets the expected size, 0 if unknown
func WithTotal(total int64) ReporterOption {
	return func(opts *ReporterOptions) {
		opts.total = total
	}
}

// WithName sets the label shown in front of the progress
func WithName(name string) ReporterOption {
	return func(opts *ReporterOptions) {
		opts.name = name
	}
}

// WithInterval sets the minimum time between two redraws; 0 redraws on every report
func WithInterval(d time.Duration) ReporterOption {
	return func(opts *ReporterOptions) {
		opts.interval = d
	}
}

// WithLogger sets the logger used when the output is not a terminal
func WithLogger(l *logrus.Entry) ReporterOption {
	return func(opts *ReporterOptions) {
		opts.logger = l
	}
}
