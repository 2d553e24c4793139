package metrics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutils/tcopy"
)

func TestTransferCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewTransferCounter(reg)

	onProgress, done := c.Progress("upload")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.activeVec.WithLabelValues("upload")))

	n, err := tcopy.CopyBufferProgress(bytes.NewReader(make([]byte, 10000)), &tcopy.Buffer{}, 4096, onProgress)
	require.NoError(t, err)
	done(err)
	assert.Equal(t, int64(10000), n)

	assert.Equal(t, float64(10000), testutil.ToFloat64(c.bytesVec.WithLabelValues("upload")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.activeVec.WithLabelValues("upload")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.transfersVec.WithLabelValues("upload", "ok")))

	onProgress, done = c.Progress("upload")
	onProgress(5)
	done(errors.New("broken pipe"))
	assert.Equal(t, float64(10005), testutil.ToFloat64(c.bytesVec.WithLabelValues("upload")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.transfersVec.WithLabelValues("upload", "error")))
}
