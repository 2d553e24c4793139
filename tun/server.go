package tun

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy"
	"github.com/tutils/tcopy/metrics"
	"github.com/tutils/tcopy/progress"
)

// Server receives transfers and stores each one as a file
type Server struct {
	opts    ServerOptions
	srv     *http.Server
	mux     *http.ServeMux
	metrics *metrics.TransferCounter
}

// NewServer creates a receiving Server
func NewServer(opts ...ServerOption) (*Server, error) {
	opt := newServerOptions(opts...)

	a, err := newAddr(opt.addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts: *opt,
		mux:  http.NewServeMux(),
	}
	s.mux.Handle(a.uri(), s)
	if reg := opt.registry; reg != nil {
		s.metrics = metrics.NewTransferCounter(reg)
		s.mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	s.srv = &http.Server{
		Addr:    a.host(),
		Handler: s.mux,
	}
	return s, nil
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe() error {
	if err := os.MkdirAll(s.opts.dir, 0755); err != nil {
		return errors.Wrap(err, "create receive directory")
	}
	s.opts.logger.WithFields(logrus.Fields{
		"addr": s.opts.addr,
		"dir":  s.opts.dir,
	}).Info("Receiver up and running")
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go startPing(conn, done)
	defer close(done)

	id := uuid.New().String()
	log := s.opts.logger.WithFields(logrus.Fields{
		"remote": r.RemoteAddr,
		"id":     id,
	})

	receipt, err := s.receive(conn, id, log)
	if err != nil {
		log.WithError(err).Error("Transfer failed")
		receipt.Error = err.Error()
	}
	if err := conn.WriteJSON(receipt); err != nil {
		log.WithError(err).Warn("Failed to send receipt")
	}
}

func (s *Server) receive(conn *websocket.Conn, id string, log *logrus.Entry) (*Receipt, error) {
	receipt := &Receipt{ID: id}

	typ, msg, err := conn.ReadMessage()
	if err != nil {
		return receipt, errors.Wrap(err, "read header")
	}
	var h Header
	if typ != websocket.TextMessage {
		return receipt, errors.Wrap(ErrProtocol, "header expected")
	}
	if err := json.Unmarshal(msg, &h); err != nil {
		return receipt, errors.Wrap(ErrProtocol, "bad header")
	}

	name := safeName(h.Name)
	receipt.Name = fmt.Sprintf("%s-%s", id, name)
	path := filepath.Join(s.opts.dir, receipt.Name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return receipt, errors.Wrap(err, "create file")
	}
	defer f.Close()
	log = log.WithField("file", receipt.Name)
	log.WithField("size", h.Size).Info("Receiving")

	onProgress := progress.LogEvery(log, 0)
	finish := func(error) {}
	if s.metrics != nil {
		var count tcopy.ProgressFunc
		count, finish = s.metrics.Progress("recv")
		onProgress = tcopy.MultiProgress(count, onProgress)
	}

	n, err := tcopy.CopyBufferProgress(newReader(conn), tcopy.NewFileDestination(f), s.opts.bufferSize, onProgress)
	receipt.Size = n
	if err == nil && h.Size >= 0 && n != h.Size {
		err = errors.Errorf("size mismatch: header %d, received %d", h.Size, n)
	}
	if err == nil {
		// the copy left f at offset 0
		hash := sha256.New()
		if _, err = io.Copy(hash, f); err == nil {
			receipt.SHA256 = hex.EncodeToString(hash.Sum(nil))
		}
	}
	finish(err)
	if err != nil {
		f.Close()
		os.Remove(path)
		return receipt, err
	}

	log.WithFields(logrus.Fields{
		"size":   n,
		"sha256": receipt.SHA256,
	}).Info("Transfer stored")
	return receipt, nil
}

func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "transfer"
	}
	return name
}
