package counter

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sumCounter struct {
	value int64
	adds  int
}

func (c *sumCounter) Value() int64      { return atomic.LoadInt64(&c.value) }
func (c *sumCounter) RatePerSec() int64 { return 0 }
func (c *sumCounter) Add(bytes int64) {
	atomic.AddInt64(&c.value, bytes)
	c.adds++
}

func TestProgress(t *testing.T) {
	c := &sumCounter{}
	fn := Progress(c)
	fn(4096)
	fn(8192)
	fn(8192)
	fn(10000)
	assert.Equal(t, int64(10000), c.Value())
	assert.Equal(t, 3, c.adds)

	// a second copy feeding the same counter starts from zero again
	fn2 := Progress(c)
	fn2(10)
	assert.Equal(t, int64(10010), c.Value())
}
