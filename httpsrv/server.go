package httpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy"
	"github.com/tutils/tcopy/metrics"
	"github.com/tutils/tcopy/progress"
)

const sniffLen = 512

var errOutsideRoot = errors.New("path escapes the served directory")

// FileInfo describes one directory entry
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
	IsDir     bool      `json:"isDir"`
	FileCount int       `json:"fileCount"`
}

// UploadResponse is returned after a file was stored
type UploadResponse struct {
	OriginalName string `json:"originalName"`
	SavedName    string `json:"savedName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
	Success      bool   `json:"success"`
}

// APIResponse is the envelope of JSON API responses
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server is an HTTP file server storing uploads with tcopy
type Server struct {
	opts    ServerOptions
	root    string
	mux     *http.ServeMux
	srv     *http.Server
	metrics *metrics.TransferCounter
}

// NewServer creates a Server; the root directory is resolved to an absolute path
func NewServer(opts ...ServerOption) (*Server, error) {
	opt := newServerOptions(opts...)

	root, err := filepath.Abs(opt.root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve root")
	}

	s := &Server{
		opts: *opt,
		root: root,
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/files", s.handleGetFileList)
	s.mux.HandleFunc("/api/upload", s.handleFileUpload)
	s.mux.HandleFunc("/files/", s.serveFileDownload)
	if reg := opt.registry; reg != nil {
		s.metrics = metrics.NewTransferCounter(reg)
		s.mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	s.srv = &http.Server{
		Addr:    opt.addr,
		Handler: s.mux,
	}
	return s, nil
}

// Handler returns the server routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe() error {
	s.opts.logger.WithFields(logrus.Fields{
		"addr": s.opts.addr,
		"root": s.root,
	}).Info("HTTP file server up and running")
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// resolve maps a client supplied relative path into the served directory
func (s *Server) resolve(rel string) (string, error) {
	target := filepath.Join(s.root, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.root, target)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return target, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, log *logrus.Entry, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) handleGetFileList(w http.ResponseWriter, r *http.Request) {
	log := s.opts.logger.WithField("remote", r.RemoteAddr)
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	subdir := r.URL.Query().Get("path")
	if subdir == "" {
		subdir = "."
	}
	dir, err := s.resolve(subdir)
	if err != nil {
		log.WithField("path", subdir).Warn("Rejected file list outside root")
		s.writeJSON(w, log, http.StatusForbidden, APIResponse{Error: err.Error(), Data: []FileInfo{}})
		return
	}

	files, err := listDirectory(dir)
	if err != nil {
		log.WithError(err).WithField("path", subdir).Error("Failed to list directory")
		s.writeJSON(w, log, http.StatusOK, APIResponse{Error: err.Error(), Data: []FileInfo{}})
		return
	}
	if files == nil {
		files = []FileInfo{}
	}
	log.WithFields(logrus.Fields{"path": subdir, "count": len(files)}).Debug("Listed directory")
	s.writeJSON(w, log, http.StatusOK, APIResponse{Success: true, Data: files})
}

func listDirectory(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read directory")
	}

	var files []FileInfo
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fi := FileInfo{
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		}
		if info.IsDir() {
			if sub, err := os.ReadDir(filepath.Join(dir, info.Name())); err == nil {
				fi.FileCount = len(sub)
			}
		}
		files = append(files, fi)
	}
	sortFileList(files)
	return files, nil
}

// sortFileList orders directories first, then names case-insensitively
func sortFileList(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
}

// handleFileUpload streams the "file" part of a multipart body to disk.
// The target directory comes from the "path" query parameter or a "path"
// field sent before the file.
func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	log := s.opts.logger.WithField("remote", r.RemoteAddr)
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		log.WithError(err).Warn("Invalid upload request")
		http.Error(w, "multipart body expected", http.StatusBadRequest)
		return
	}

	targetPath := r.URL.Query().Get("path")
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			http.Error(w, "no file part", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.WithError(err).Warn("Failed to read multipart body")
			http.Error(w, "malformed multipart body", http.StatusBadRequest)
			return
		}

		switch part.FormName() {
		case "path":
			b, err := io.ReadAll(io.LimitReader(part, 4096))
			if err != nil {
				http.Error(w, "malformed multipart body", http.StatusBadRequest)
				return
			}
			targetPath = string(b)
		case "file":
			s.storeUpload(w, log, targetPath, part)
			return
		}
	}
}

func (s *Server) storeUpload(w http.ResponseWriter, log *logrus.Entry, targetPath string, part *multipart.Part) {
	if targetPath == "" {
		targetPath = "."
	}
	dir, err := s.resolve(targetPath)
	if err != nil {
		log.WithField("path", targetPath).Warn("Rejected upload outside root")
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.WithError(err).Error("Failed to create upload directory")
		http.Error(w, "cannot create directory", http.StatusInternalServerError)
		return
	}

	f, savedName, err := createUnique(dir, part.FileName())
	if err != nil {
		log.WithError(err).Error("Failed to create upload file")
		http.Error(w, "cannot create file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	onProgress := progress.LogEvery(log.WithField("file", savedName), 0)
	done := func(error) {}
	if s.metrics != nil {
		var count tcopy.ProgressFunc
		count, done = s.metrics.Progress("upload")
		onProgress = tcopy.MultiProgress(count, onProgress)
	}
	size, err := tcopy.CopyBufferProgress(part, tcopy.NewFileDestination(f), s.opts.bufferSize, onProgress)
	done(err)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		log.WithError(err).WithField("file", savedName).Error("Upload failed")
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	contentType, err := sniff(f)
	if err != nil {
		log.WithError(err).WithField("file", savedName).Warn("Failed to sniff content type")
		contentType = "application/octet-stream"
	}

	log.WithFields(logrus.Fields{
		"original": part.FileName(),
		"saved":    savedName,
		"size":     size,
		"type":     contentType,
	}).Info("File uploaded")
	s.writeJSON(w, log, http.StatusOK, UploadResponse{
		OriginalName: part.FileName(),
		SavedName:    savedName,
		Size:         size,
		ContentType:  contentType,
		Success:      true,
	})
}

// sniff detects the content type from the head of a rewound file
func sniff(r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// createUnique creates name in dir, appending _1, _2, ... before the
// extension until the name is free
func createUnique(dir, original string) (*os.File, string, error) {
	name := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
	}
}

func (s *Server) serveFileDownload(w http.ResponseWriter, r *http.Request) {
	log := s.opts.logger.WithField("remote", r.RemoteAddr)
	rel := strings.TrimPrefix(r.URL.Path, "/files/")
	if rel == "" {
		http.NotFound(w, r)
		return
	}
	path, err := s.resolve(rel)
	if err != nil {
		log.WithField("path", rel).Warn("Rejected download outside root")
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.WithError(err).WithField("path", rel).Error("Failed to stat file")
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.Error(w, "cannot download a directory", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	log.WithFields(logrus.Fields{"path": rel, "size": info.Size()}).Info("File served")
}
