package httpsrv

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	opts = append([]ServerOption{WithRoot(root), WithBufferSize(64), WithLogger(logrus.NewEntry(logger))}, opts...)
	s, err := NewServer(opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, root
}

func upload(t *testing.T, url, dir, name string, content []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if dir != "" {
		require.NoError(t, mw.WriteField("path", dir))
	}
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/api/upload", mw.FormDataContentType(), body)
	require.NoError(t, err)
	return resp
}

func TestUpload(t *testing.T) {
	ts, root := newTestServer(t)
	content := []byte(strings.Repeat("hello tcopy\n", 100))

	resp := upload(t, ts.URL, "docs", "notes.txt", content)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ur UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ur))
	assert.True(t, ur.Success)
	assert.Equal(t, "notes.txt", ur.OriginalName)
	assert.Equal(t, "notes.txt", ur.SavedName)
	assert.Equal(t, int64(len(content)), ur.Size)
	assert.Equal(t, "text/plain; charset=utf-8", ur.ContentType)

	saved, err := os.ReadFile(filepath.Join(root, "docs", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, saved)

	resp2 := upload(t, ts.URL, "docs", "notes.txt", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	defer resp2.Body.Close()
	var ur2 UploadResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&ur2))
	assert.Equal(t, "notes_1.txt", ur2.SavedName)
	assert.Equal(t, "image/png", ur2.ContentType)
}

func TestUploadEmptyFile(t *testing.T) {
	ts, root := newTestServer(t)
	resp := upload(t, ts.URL, "", "empty.bin", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ur UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ur))
	assert.Equal(t, int64(0), ur.Size)
	info, err := os.Stat(filepath.Join(root, "empty.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestUploadOutsideRoot(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := upload(t, ts.URL, "../escape", "x.txt", []byte("x"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/api/upload")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFileListAndDownload(t *testing.T) {
	ts, root := newTestServer(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "zdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "zdir", "inner"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "B.txt"), []byte("bee"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	resp, err := http.Get(ts.URL + "/api/files")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list struct {
		Success bool       `json:"success"`
		Data    []FileInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.True(t, list.Success)
	require.Len(t, list.Data, 3)
	assert.Equal(t, "zdir", list.Data[0].Name)
	assert.Equal(t, 1, list.Data[0].FileCount)
	assert.Equal(t, "a.txt", list.Data[1].Name)
	assert.Equal(t, "B.txt", list.Data[2].Name)

	resp, err = http.Get(ts.URL + "/api/files?path=../..")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/files/B.txt")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "bee", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="B.txt"`)

	resp, err = http.Get(ts.URL + "/files/zdir")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/files/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadMetrics(t *testing.T) {
	ts, _ := newTestServer(t, WithMetrics(prometheus.NewRegistry()))
	resp := upload(t, ts.URL, "", "m.bin", make([]byte, 1000))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tcopy_transferred_bytes_total{op="upload"} 1000`)
	assert.Contains(t, string(body), `tcopy_transfers_total{op="upload",result="ok"} 1`)
}
