package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/orodjarna/internal/pictures"
)

// inTempDir runs the test from an empty directory so no stray .env is loaded.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "orodjarna.sqlite3", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "secret.txt", cfg.SecretFile)
	assert.False(t, cfg.UseMinio())
	assert.False(t, cfg.UseTLS())
	assert.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("ORODJARNA_ADDR=:7000\nORODJARNA_DB=fromdotenv.db\nORODJARNA_PICTURES=pics\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ORODJARNA_ADDR")
		os.Unsetenv("ORODJARNA_PICTURES")
	})
	t.Setenv("ORODJARNA_DB", "fromenv.db")
	t.Setenv("ORODJARNA_MINIO_SSL", "true")

	cfg, err := Load([]string{"-addr", ":9000"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr, "flag beats .env")
	assert.Equal(t, "fromenv.db", cfg.DBPath, "environment beats .env")
	assert.Equal(t, "pics", cfg.PictureDir)
	assert.True(t, cfg.Minio.UseSSL)
}

func TestLoadErrors(t *testing.T) {
	inTempDir(t)

	_, err := Load([]string{"-help"})
	assert.ErrorIs(t, err, flag.ErrHelp)

	_, err = Load([]string{"extra"})
	assert.Error(t, err)

	_, err = Load([]string{"-nope"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]Config{
		"no secret":    {},
		"half tls":     {SecretFile: "s", TLSCert: "cert.pem"},
		"minio bucket": {SecretFile: "s", Minio: minioEndpointOnly()},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}

	ok := Config{SecretFile: "s", TLSCert: "c", TLSKey: "k"}
	assert.NoError(t, ok.Validate())
	assert.True(t, ok.UseTLS())
}

func minioEndpointOnly() pictures.MinioConfig {
	return pictures.MinioConfig{Endpoint: "localhost:9000"}
}
