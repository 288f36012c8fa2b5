package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orange-console/internal/model"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse([]string{"-secret", "s3"}, io.Discard)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:3001", cfg.ServerURL)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, model.KindSinger, cfg.StartPage)
	require.Equal(t, max(runtime.NumCPU(), 1), cfg.Workers)
	require.NotEmpty(t, cfg.SessionFile)
	require.False(t, cfg.Logout)
	require.NotEmpty(t, cfg.PreviewDir)
}

func TestParseDisablesRemotePreviews(t *testing.T) {
	cfg, err := parse([]string{"-secret", "s3", "-remote-previews=false", "-preview-dir", "/tmp/x"}, io.Discard)
	require.NoError(t, err)
	require.Empty(t, cfg.PreviewDir)
}

func TestParseTrimsServerAndClampsWorkers(t *testing.T) {
	cfg, err := parse([]string{"-secret", "s3", "-server", "http://catalog:3001/ ", "-workers", "0", "-page", "songs"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "http://catalog:3001", cfg.ServerURL)
	require.Equal(t, 1, cfg.Workers)
	require.Equal(t, model.KindSong, cfg.StartPage)
}

func TestParseReadsEnvironment(t *testing.T) {
	t.Setenv("ORANGE_SECRET", "from-env")
	t.Setenv("ORANGE_HTTP_TIMEOUT", "5s")

	cfg, err := parse(nil, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Secret)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestParseReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.conf")
	require.NoError(t, os.WriteFile(path, []byte("secret filed\npage albums\n"), 0o644))

	cfg, err := parse([]string{"-config-path", path}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, "filed", cfg.Secret)
	require.Equal(t, model.KindAlbum, cfg.StartPage)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := parse([]string{"-secret", "s", "-page", "users"}, io.Discard)
	require.Error(t, err)

	_, err = parse([]string{"-secret", "s", "-server", " "}, io.Discard)
	require.Error(t, err)

	_, err = parse(nil, io.Discard)
	require.ErrorContains(t, err, "secret")
}

func TestParseLogoutWithoutSecret(t *testing.T) {
	cfg, err := parse([]string{"-logout"}, io.Discard)
	require.NoError(t, err)
	require.True(t, cfg.Logout)
}
