package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadWritesDefaultsWhenFileMissing(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.PostgresURL)
	assert.Equal(t, uint16(3030), cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.BindAddress.String())
	assert.Empty(t, cfg.BotNames)

	_, err = os.Stat(FileName)
	require.NoError(t, err)
}

func TestLoadRoundTripsExistingFile(t *testing.T) {
	chdirTemp(t)

	written := []byte(`postgres_url = "postgres://u:p@host/db"
bind_address = "0.0.0.0"
port = 8080
bot_names = ["logbot", "helper-bot"]
`)
	require.NoError(t, os.WriteFile(filepath.Join(".", FileName), written, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@host/db", cfg.PostgresURL)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.BindAddress.String())
	assert.Equal(t, []string{"logbot", "helper-bot"}, cfg.BotNames)
}

func TestLoadFallsBackToDefaultsOnMalformedFile(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, os.WriteFile(FileName, []byte("not valid toml :::"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(3030), cfg.Port)
}

func TestAddr(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "127.0.0.1:3030", cfg.Addr())
}
