package cmd

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		flags := rootCmd.PersistentFlags()
		flags.Set("buffer-size", "4096")
		flags.Set("log-format", "text")
		copyShowProgress, copySync, copyTruncate = false, false, true
		sendShowProgress = false
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCopyCommand(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 50000)
	rand.New(rand.NewSource(7)).Read(data)
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	require.NoError(t, os.WriteFile(src, data, 0644))
	// stale longer content must be truncated away
	require.NoError(t, os.WriteFile(dst, make([]byte, 60000), 0644))

	out, err := execute(t, "copy", src, dst, "--buffer-size=1000", "--progress", "--sync")
	require.NoError(t, err)
	assert.Equal(t, "50000", strings.TrimSpace(out))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyCommandErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "copy", filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "open source")

	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	_, err = execute(t, "copy", src, filepath.Join(dir, "out"), "--buffer-size=0")
	assert.ErrorContains(t, err, "buffer-size must be positive")

	_, err = execute(t, "copy", src, filepath.Join(dir, "out"), "--log-format=xml")
	assert.ErrorContains(t, err, "unknown log-format")
}

func TestCopyCommandRemovesIncompleteDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.bin")
	require.NoError(t, os.WriteFile(dst, []byte("previous"), 0644))

	// reading a directory fails after the destination was opened
	_, err := execute(t, "copy", dir, dst)
	require.Error(t, err)
	assert.ErrorContains(t, err, "copy failed after 0 bytes")
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err), "stat err=%v", err)
}

func TestCopyCommandSameFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("keep me"), 0644))

	_, err := execute(t, "copy", src, filepath.Join(dir, ".", "src.txt"))
	assert.ErrorContains(t, err, "are the same file")

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("stale content"), 0644))

	n, err := CopyFile(src, dst, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = CopyFile(src, dst, 0)
	assert.ErrorContains(t, err, "buffer-size must be positive")

	_, err = CopyFile(dir, dst, 4096)
	require.Error(t, err)
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err), "stat err=%v", err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "tcopy.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("httpsrv:\n  root: /srv/files\nrecv:\n  dir: /srv/incoming\n"), 0644))

	cfgFile = cfg
	defer func() { cfgFile = "" }()
	initConfig()
	assert.Equal(t, cfg, viper.ConfigFileUsed())
	assert.Equal(t, "/srv/files", viper.GetString("httpsrv.root"))
	assert.Equal(t, "/srv/incoming", viper.GetString("recv.dir"))
	// keys absent from the file keep their flag defaults
	assert.Equal(t, "ws://0.0.0.0:8080/stream", viper.GetString("recv.listen"))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TCOPY_SEND_CONNECT", "ws://example.com:9000/stream")
	initConfig()
	assert.Equal(t, "ws://example.com:9000/stream", viper.GetString("send.connect"))
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	require.NoError(t, setupLogging("warn", "json"))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)
	assert.Error(t, setupLogging("loud", "text"))
}
