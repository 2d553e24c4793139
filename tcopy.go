package tcopy

import (
	"errors"
	"io"
)

// DefaultBufferSize is the chunk size used when the caller does not pick one
const DefaultBufferSize = 4096

// ErrInvalidArgument is matched by every argument validation error of the copy functions
var ErrInvalidArgument = errors.New("tcopy: invalid argument")

var (
	ErrNilSource         = &argError{name: "source", msg: "must not be nil"}
	ErrNilDestination    = &argError{name: "destination", msg: "must not be nil"}
	ErrNilProgress       = &argError{name: "onProgress", msg: "must not be nil"}
	ErrInvalidBufferSize = &argError{name: "bufferSize", msg: "must be positive"}
)

type argError struct {
	name string
	msg  string
}

func (e *argError) Error() string {
	return "tcopy: invalid argument " + e.name + ": " + e.msg
}

func (e *argError) Unwrap() error {
	return ErrInvalidArgument
}

// Destination is a writable, flushable and seekable byte stream
type Destination interface {
	io.Writer
	io.Seeker
	Flush() error
}

// ProgressFunc receives the cumulative number of bytes transferred so far
type ProgressFunc func(transferred int64)

// NopProgress ignores progress reports
func NopProgress(int64) {}

// Copy copies src into dst using DefaultBufferSize and no progress reporting.
func Copy(src io.Reader, dst Destination) (int64, error) {
	return CopyBufferProgress(src, dst, DefaultBufferSize, NopProgress)
}

// CopyBuffer copies src into dst reading at most bufferSize bytes at a time.
func CopyBuffer(src io.Reader, dst Destination, bufferSize int) (int64, error) {
	return CopyBufferProgress(src, dst, bufferSize, NopProgress)
}

// CopyProgress copies src into dst using DefaultBufferSize, reporting progress to onProgress.
func CopyProgress(src io.Reader, dst Destination, onProgress ProgressFunc) (int64, error) {
	return CopyBufferProgress(src, dst, DefaultBufferSize, onProgress)
}

// CopyBufferProgress copies everything src yields into dst in chunks of at
// most bufferSize bytes and returns the number of bytes transferred.
//
// onProgress is called with the running total after each chunk is read and
// before that chunk is written. The loop stops at io.EOF or at the first
// read that yields no bytes. On success dst has been flushed and seeked back
// to offset 0, so the caller can read back what was just written.
//
// Errors from src and dst are returned as they are, together with the number
// of bytes read up to that point; dst is then neither flushed nor rewound.
// Neither stream is closed.
func CopyBufferProgress(src io.Reader, dst Destination, bufferSize int, onProgress ProgressFunc) (int64, error) {
	switch {
	case src == nil:
		return 0, ErrNilSource
	case dst == nil:
		return 0, ErrNilDestination
	case onProgress == nil:
		return 0, ErrNilProgress
	case bufferSize <= 0:
		return 0, ErrInvalidBufferSize
	}

	buf := make([]byte, bufferSize)
	var transferred int64
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			transferred += int64(nr)
			onProgress(transferred)

			nw, ew := dst.Write(buf[:nr])
			if ew != nil {
				return transferred, ew
			}
			if nw != nr {
				return transferred, io.ErrShortWrite
			}
		}
		if er == io.EOF || (nr == 0 && er == nil) {
			break
		}
		if er != nil {
			return transferred, er
		}
	}

	if err := dst.Flush(); err != nil {
		return transferred, err
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return transferred, err
	}
	return transferred, nil
}

// MultiProgress returns a ProgressFunc calling every non-nil fn in order
func MultiProgress(fns ...ProgressFunc) ProgressFunc {
	return func(transferred int64) {
		for _, fn := range fns {
			if fn != nil {
				fn(transferred)
			}
		}
	}
}
