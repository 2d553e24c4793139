package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy/counter"
	"github.com/tutils/tcopy/counter/period"
	"golang.org/x/term"
)

const defaultWidth = 80

type fder interface {
	Fd() uintptr
}

// Reporter renders copy progress.
// On a terminal it redraws one line in place, elsewhere it logs.
type Reporter struct {
	opts    ReporterOptions
	counter counter.Counter
	feed    func(int64)
	isTerm  bool
	width   int

	mu        sync.Mutex
	lastDraw  time.Time
	lastValue int64
	lineLen   int
}

// NewReporter creates a Reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	opt := newReporterOptions(opts...)
	r := &Reporter{
		opts:    *opt,
		counter: period.NewPeriodCounter(time.Second),
		width:   defaultWidth,
	}
	r.feed = counter.Progress(r.counter)

	if f, ok := opt.out.(fder); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			r.isTerm = true
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				r.width = w
			}
		}
	}
	return r
}

// Report records the cumulative transferred count; it has the shape of tcopy.ProgressFunc
func (r *Reporter) Report(transferred int64) {
	r.feed(transferred)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastValue = transferred
	now := time.Now()
	if !r.lastDraw.IsZero() && now.Sub(r.lastDraw) < r.opts.interval {
		return
	}
	r.lastDraw = now
	r.draw(false)
}

// Done prints the final state
func (r *Reporter) Done(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastValue = total
	r.draw(true)
}

// Value returns the last reported count
func (r *Reporter) Value() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastValue
}

func (r *Reporter) draw(done bool) {
	if !r.isTerm {
		fields := logrus.Fields{
			"transferred": HumanReadable(uint64(r.lastValue)),
			"rate":        HumanReadable(uint64(r.counter.RatePerSec())) + "/s",
		}
		if r.opts.name != "" {
			fields["name"] = r.opts.name
		}
		if r.opts.total > 0 {
			fields["total"] = HumanReadable(uint64(r.opts.total))
			fields["percent"] = r.percent()
		}
		if done {
			r.opts.logger.WithFields(fields).Info("Transfer complete")
		} else {
			r.opts.logger.WithFields(fields).Info("Transfer progress")
		}
		return
	}

	line := r.line()
	pad := ""
	if n := r.lineLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	r.lineLen = len(line)
	fmt.Fprintf(r.opts.out, "\r%s%s", line, pad)
	if done {
		fmt.Fprintln(r.opts.out)
		r.lineLen = 0
	}
}

func (r *Reporter) percent() int {
	if r.opts.total <= 0 {
		return 0
	}
	p := int(r.lastValue * 100 / r.opts.total)
	if p > 100 {
		p = 100
	}
	return p
}

func (r *Reporter) line() string {
	var b strings.Builder
	if r.opts.name != "" {
		b.WriteString(r.opts.name)
		b.WriteString(" ")
	}
	stats := HumanReadable(uint64(r.lastValue))
	if r.opts.total > 0 {
		stats += " / " + HumanReadable(uint64(r.opts.total))
		stats += fmt.Sprintf(" %3d%%", r.percent())
	}
	stats += " " + HumanReadable(uint64(r.counter.RatePerSec())) + "/s"

	if r.opts.total > 0 {
		// [====>    ]
		barWidth := r.width - b.Len() - len(stats) - 4
		if barWidth > 50 {
			barWidth = 50
		}
		if barWidth >= 10 {
			filled := barWidth * r.percent() / 100
			b.WriteString("[")
			b.WriteString(strings.Repeat("=", filled))
			if filled < barWidth {
				b.WriteString(">")
				b.WriteString(strings.Repeat(" ", barWidth-filled-1))
			}
			b.WriteString("] ")
		}
	}
	b.WriteString(stats)

	s := b.String()
	if len(s) >= r.width {
		s = s[:r.width-1]
	}
	return s
}
