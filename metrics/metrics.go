package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tutils/tcopy"
	"github.com/tutils/tcopy/counter"
)

// TransferCounter tracks copies per operation ("upload", "recv", ...)
type TransferCounter struct {
	bytesVec     *prometheus.CounterVec
	transfersVec *prometheus.CounterVec
	activeVec    *prometheus.GaugeVec
}

// NewTransferCounter creates the transfer metrics and registers them with reg
func NewTransferCounter(reg prometheus.Registerer) *TransferCounter {
	c := &TransferCounter{
		bytesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcopy_transferred_bytes_total",
			Help: "Bytes moved by completed and in-flight copies.",
		}, []string{"op"}),
		transfersVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcopy_transfers_total",
			Help: "Finished copies by result.",
		}, []string{"op", "result"}),
		activeVec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tcopy_active_transfers",
			Help: "Copies in progress.",
		}, []string{"op"}),
	}
	reg.MustRegister(c.bytesVec, c.transfersVec, c.activeVec)
	return c
}

type promCounter struct {
	c prometheus.Counter
}

func (p promCounter) Value() int64      { return 0 }
func (p promCounter) RatePerSec() int64 { return 0 }
func (p promCounter) Add(bytes int64)   { p.c.Add(float64(bytes)) }

// Progress starts tracking one copy of op.
// The returned callback is meant for the copy functions; done must be
// called exactly once with the copy result.
func (c *TransferCounter) Progress(op string) (onProgress tcopy.ProgressFunc, done func(err error)) {
	c.activeVec.WithLabelValues(op).Inc()
	onProgress = counter.Progress(promCounter{c: c.bytesVec.WithLabelValues(op)})
	done = func(err error) {
		c.activeVec.WithLabelValues(op).Dec()
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.transfersVec.WithLabelValues(op, result).Inc()
	}
	return onProgress, done
}
