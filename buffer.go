package tcopy

import (
	"errors"
	"io"
)

var (
	ErrNegativePosition = errors.New("tcopy: negative position")
	ErrInvalidWhence    = errors.New("tcopy: invalid whence")
)

var (
	_ Destination = &Buffer{}
	_ io.Reader   = &Buffer{}
)

// Buffer is an in-memory seekable byte stream.
// Reads and writes share one position; writing past the end grows the
// buffer, zero-filling any gap left by a seek beyond the end.
// The zero value is an empty Buffer ready to use.
type Buffer struct {
	data []byte
	pos  int64
}

// NewBuffer creates a Buffer holding a copy of b, positioned at 0
func NewBuffer(b []byte) *Buffer {
	data := make([]byte, len(b))
	copy(data, b)
	return &Buffer{data: data}
}

func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.pos >= int64(len(b.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.data)
			b.data = grown
		} else {
			tail := b.data[len(b.data):end]
			for i := range tail {
				tail[i] = 0
			}
			b.data = b.data[:end]
		}
	}
	n = copy(b.data[b.pos:], p)
	b.pos = end
	return n, nil
}

// Flush is a no-op
func (b *Buffer) Flush() error {
	return nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, ErrInvalidWhence
	}
	if abs < 0 {
		return 0, ErrNegativePosition
	}
	b.pos = abs
	return abs, nil
}

// Bytes returns the whole content regardless of the position.
// The slice aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the content length
func (b *Buffer) Len() int {
	return len(b.data)
}

// Pos returns the current position
func (b *Buffer) Pos() int64 {
	return b.pos
}

// Reset empties the buffer and rewinds it
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.pos = 0
}
