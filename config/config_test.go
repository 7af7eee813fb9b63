package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "botgate.yml")
	content := `
web:
  host: 192.168.1.10
  port: 8088
gateway:
  bulk_send_interval: 250ms
crm:
  endpoint: http://crm.local:9000
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))
	t.Setenv("BOTGATE_WEB_HOST", "127.0.0.1")
	t.Setenv("BOTGATE_CRM_TOKEN", "sekret")

	cfg := LoadConfig(cfile)

	// Environment beats file, file beats defaults.
	assert.Equal(t, "127.0.0.1", cfg.Web.Host)
	assert.Equal(t, 8088, cfg.Web.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Gateway.BulkSendInterval)
	assert.Equal(t, "http://crm.local:9000", cfg.Crm.Endpoint)
	assert.Equal(t, "sekret", cfg.Crm.BearerToken)

	// Untouched fields keep their defaults.
	assert.Equal(t, "@c.us", cfg.Gateway.CanonicalSuffix)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 5*time.Second, cfg.Crm.Timeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.NotEmpty(t, cfg.System.Workdir)
	assert.Equal(t, filepath.Join(cfg.System.Workdir, "sessions"), cfg.Gateway.SessionsDir)
}
