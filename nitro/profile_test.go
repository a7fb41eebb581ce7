package nitro

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appliance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestLoadProfile(t *testing.T) {
	cfg, err := LoadProfile(writeProfile(t,
		"endpoint: https://ns1.example.com\nusername: nsroot\npassword: secret\ntimeout: 10s\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://ns1.example.com", cfg.Endpoint)
	assert.Equal(t, "nsroot", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestLoadProfileRejectsBadInput(t *testing.T) {
	_, err := LoadProfile(writeProfile(t, "username: nsroot\n"))
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = LoadProfile(writeProfile(t, "endpoint: https://x\ntimeout: soon\n"))
	assert.ErrorContains(t, err, "bad timeout")

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
