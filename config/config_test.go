package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	content := `DATABASE_HOST=localhost
DATABASE_PORT_NUM=5432
DATABASE_USERNAME=tao
DATABASE_PASSWORD=secret
DATABASE_NAME=taodb
OPE_KEY=ope-testing-key
AES_KEY=my-tao-testing-key
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_HOST", "DATABASE_PORT_NUM", "DATABASE_USERNAME",
		"DATABASE_PASSWORD", "DATABASE_NAME", "OPE_KEY", "AES_KEY",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "tao", cfg.Database.User)
	assert.Equal(t, "taodb", cfg.Database.Name)
	assert.Equal(t, "ope-testing-key", cfg.Keys.OPEKey)
	assert.Equal(t, "my-tao-testing-key", cfg.Keys.AESKey)
	assert.Equal(t, "localhost:8080", cfg.Server.ListenAddr)
	assert.True(t, cfg.Server.Encrypt)
}

func TestLoadMissingKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_HOST=localhost\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n", d.ConnString())
}

func TestLoadServerFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeEnvFile(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: 0.0.0.0:9090\ncache_size: 256\nencrypt: false\n"), 0o600))

	require.NoError(t, cfg.LoadServerFile(path))
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.ListenAddr)
	assert.Equal(t, 256, cfg.Server.CacheSize)
	assert.False(t, cfg.Server.Encrypt)
}
