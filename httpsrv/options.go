package httpsrv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy"
)

// ServerOptions is server options
type ServerOptions struct {
	addr       string
	root       string
	bufferSize int
	registry   *prometheus.Registry
	logger     *logrus.Entry
}

// ServerOption is option setter for server
type ServerOption func(*ServerOptions)

// default server options
var (
	DefaultListenAddress = "0.0.0.0:8080"
	DefaultRoot          = "."
)

func newServerOptions(opts ...ServerOption) *ServerOptions {
	opt := &ServerOptions{}
	for _, o := range opts {
		o(opt)
	}

	if opt.addr == "" {
		opt.addr = DefaultListenAddress
	}
	if opt.root == "" {
		opt.root = DefaultRoot
	}
	if opt.bufferSize <= 0 {
		opt.bufferSize = tcopy.DefaultBufferSize
	}
	if opt.logger == nil {
		opt.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return opt
}

// WithListenAddress sets server listen address opt
func WithListenAddress(addr string) ServerOption {
	return func(opts *ServerOptions) {
		opts.addr = addr
	}
}

// WithRoot sets the served directory
func WithRoot(dir string) ServerOption {
	return func(opts *ServerOptions) {
		opts.root = dir
	}
}

// WithBufferSize sets the chunk size used to store uploads
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
