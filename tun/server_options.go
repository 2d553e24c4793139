package tun

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy"
)

// ServerOptions is server options
type ServerOptions struct {
	addr       string
	dir        string
	bufferSize int
	registry   *prometheus.Registry
	logger     *logrus.Entry
}

// ServerOption is option setter for server
type ServerOption func(*ServerOptions)

// default server options
var (
	DefaultListenAddress = "ws://0.0.0.0:8080/stream"
	DefaultDir           = "."
)

func newServerOptions(opts ...ServerOption) *ServerOptions {
	opt := &ServerOptions{}
	for _, o := range opts {
		o(opt)
	}

	if opt.addr == "" {
		opt.addr = DefaultListenAddress
	}
	if opt.dir == "" {
		opt.dir = DefaultDir
	}
	if opt.bufferSize <= 0 {
		opt.bufferSize = tcopy.DefaultBufferSize
	}
	if opt.logger == nil {
		opt.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return opt
}

// WithListenAddress sets server listen address opt, a ws:// URL
func WithListenAddress(addr string) ServerOption {
	return func(opts *ServerOptions) {
		opts.addr = addr
	}
}

// WithDir sets where received files are stored
func WithDir(dir string) ServerOption {
	return func(opts *ServerOptions) {
		opts.dir = dir
	}
}

// WithBufferSize sets the copy chunk size used to store transfers
func WithBufferSize(size int) ServerOption {
	return func(opts *ServerOptions) {
		opts.bufferSize = size
	}
}

// WithMetrics registers transfer metrics in reg and serves them on /metrics
func WithMetrics(reg *prometheus.Registry) ServerOption {
	return func(opts *ServerOptions) {
		opts.registry = reg
	}
}

// WithLogger sets server logger
func WithLogger(l *logrus.Entry) ServerOption {
	return func(opts *ServerOptions) {
		opts.logger = l
	}
}
