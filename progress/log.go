package progress

import (
	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy"
)

// DefaultLogStep is the byte distance between two LogEvery lines
const DefaultLogStep = 64 << 20

// LogEvery returns a progress callback logging at debug level each time the
// running total reaches another multiple of step. A step <= 0 uses DefaultLogStep.
func LogEvery(log *logrus.Entry, step int64) tcopy.ProgressFunc {
	if step <= 0 {
		step = DefaultLogStep
	}
	next := step
	return func(transferred int64) {
		if transferred < next {
			return
		}
		next = (transferred/step + 1) * step
		log.WithFields(logrus.Fields{
			"transferred": transferred,
			"size":        HumanReadable(uint64(transferred)),
		}).Debug("Copy progress")
	}
}
