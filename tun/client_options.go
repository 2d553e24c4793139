package tun

import "github.com/tutils/tcopy"

// client options
type ClientOptions struct {
	addr       string
	bufferSize int
}

// client option
type ClientOption func(*ClientOptions)

// default client options
var (
	DefaultConnectAddress = "ws://127.0.0.1:8080/stream"
)

func newClientOptions(opts ...ClientOption) *ClientOptions {
	opt := &ClientOptions{}
	for _, o := range opts {
		o(opt)
	}

	if opt.addr == "" {
		opt.addr = DefaultConnectAddress
	}
	if opt.bufferSize <= 0 {
		opt.bufferSize = tcopy.DefaultBufferSize
	}

	return opt
}

// client connect address opt
func WithConnectAddress(addr string) ClientOption {
	return func(opts *ClientOptions) {
		opts.addr = addr
	}
}

// chunk size opt, one websocket message per chunk
func WithClientBufferSize(size int) ClientOption {
	return func(opts *ClientOptions) {
		opts.bufferSize = size
	}
}
