package tcopy

import (
	"bufio"
	"io"
	"os"
)

var _ Destination = &fileDestination{}

type fileDestination struct {
	*os.File
}

// Flush commits the file contents to stable storage
func (d *fileDestination) Flush() error {
	return d.File.Sync()
}

// NewFileDestination makes f usable as a copy destination, flushing with f.Sync.
func NewFileDestination(f *os.File) Destination {
	return &fileDestination{File: f}
}

var _ Destination = &BufferedDestination{}

// BufferedDestination buffers writes to an io.WriteSeeker.
// Seek flushes pending writes before moving the underlying position.
type BufferedDestination struct {
	ws   io.WriteSeeker
	bufw *bufio.Writer
}

// NewBufferedDestination wraps ws with a write buffer of the given size,
// DefaultBufferSize if size <= 0.
func NewBufferedDestination(ws io.WriteSeeker, size int) *BufferedDestination {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &BufferedDestination{
		ws:   ws,
		bufw: bufio.NewWriterSize(ws, size),
	}
}

func (d *BufferedDestination) Write(p []byte) (n int, err error) {
	return d.bufw.Write(p)
}

// Flush writes any buffered data to the underlying WriteSeeker
func (d *BufferedDestination) Flush() error {
	return d.bufw.Flush()
}

func (d *BufferedDestination) Seek(offset int64, whence int) (int64, error) {
	if err := d.bufw.Flush(); err != nil {
		return 0, err
	}
	return d.ws.Seek(offset, whence)
}

// Buffered returns the number of bytes not yet written to the underlying WriteSeeker
func (d *BufferedDestination) Buffered() int {
	return d.bufw.Buffered()
}
