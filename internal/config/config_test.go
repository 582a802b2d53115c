package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zbxerrors "github.com/sonic-ru/zbxdash/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, filepath.Join(cfg.DataDir, "state.db"), cfg.StatePath())
}

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `data_dir: /tmp/zbxdash-test
request_timeout: 5s
insecure_skip_verify: true
color: never
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/zbxdash-test", cfg.DataDir)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "never", cfg.Color)
}

func TestLoadMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("color: always\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Unspecified keys fall back to defaults
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "always", cfg.Color)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.True(t, zbxerrors.IsCode(err, zbxerrors.ErrConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, zbxerrors.IsCode(err, zbxerrors.ErrConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	want := &Config{
		DataDir:            dir,
		RequestTimeout:     10 * time.Second,
		InsecureSkipVerify: true,
		Color:              "never",
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindExplicitMissing(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.True(t, zbxerrors.IsCode(err, zbxerrors.ErrConfig))
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	// Point the default dir somewhere empty so no real user config leaks in.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
