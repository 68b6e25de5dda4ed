package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOREFRONT_TG_TOKEN", "123:abc")

	path := writeFile(t, dir, "config.yaml", `
server:
  port: 9000
database:
  path: `+filepath.Join(dir, "db", "journal.db")+`
telegram:
  enabled: true
  bot_token: ${STOREFRONT_TG_TOKEN}
  chat_id: -100200
refresh:
  hours_interval_seconds: 15
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "configs/store.yaml", cfg.Store.Path)
	assert.Equal(t, "storefront", cfg.Redis.Prefix)
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)

	assert.Equal(t, 15*time.Second, cfg.HoursRefreshInterval())
	assert.Equal(t, time.Hour, cfg.SeasonRefreshInterval())
	assert.Equal(t, 30*time.Second, cfg.StoreReloadInterval())
	assert.Equal(t, 90*24*time.Hour, cfg.JournalRetention())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())

	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "server: [oops")
	_, err := Load(path)
	assert.Error(t, err)
}
