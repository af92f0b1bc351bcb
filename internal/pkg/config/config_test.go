package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `
navigator:
  history_limit: 5
  text_limit: 2000
  caption_limit: 500
  album_floor: 2
  album_ceiling: 6
  album_blend: ["photo", "video", "animation"]
  truncate: true
  strict_inline_path: false
  detect_thumb_change: true
  delete_pause: 250ms
logging:
  level: "DEBUG"
  format: "text"
  redaction: "paranoid"
storage:
  dsn: "sqlite:///var/lib/nav/fsm.db"
  ttl: 24h
  validate_schema: true
  cleanup_interval: 10m
telegram:
  token: "123:abc"
  poll_timeout: 30s
http:
  host: "127.0.0.1"
  port: 8081
  shutdown_timeout: 5s
alerts:
  default: "Готово"
  en: "Done"
`

// legacyYAML содержит устаревшее поле паузы в миллисекундах.
const legacyYAML = `
navigator:
  delete_pause_ms: 40
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoad(t *testing.T) {
	t.Run("полный файл", func(t *testing.T) {
		cfg, err := Load(createTempConfigFile(t, fullYAML))
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.Navigator.HistoryLimit)
		assert.Equal(t, 2000, cfg.Navigator.TextLimit)
		assert.Equal(t, 500, cfg.Navigator.CaptionLimit)
		assert.Equal(t, 6, cfg.Navigator.AlbumCeiling)
		assert.Equal(t, []string{"photo", "video", "animation"}, cfg.Navigator.AlbumBlend)
		assert.True(t, cfg.Navigator.Truncate)
		assert.False(t, cfg.Navigator.StrictInlinePath)
		assert.True(t, cfg.Navigator.DetectThumbChange)
		assert.Equal(t, 250*time.Millisecond, cfg.Navigator.DeletePause)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "text", cfg.Logging.Format)
		assert.Equal(t, "paranoid", cfg.Logging.Redaction)

		assert.Equal(t, "sqlite:///var/lib/nav/fsm.db", cfg.Storage.DSN)
		assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
		assert.True(t, cfg.Storage.ValidateSchema)
		assert.Equal(t, 10*time.Minute, cfg.Storage.CleanupInterval)

		assert.Equal(t, "123:abc", cfg.Telegram.Token)
		assert.Equal(t, 30*time.Second, cfg.Telegram.PollTimeout)
		assert.Equal(t, "127.0.0.1:8081", cfg.Address())
		assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
		assert.Equal(t, "Готово", cfg.Alerts["default"])
		assert.Equal(t, "Done", cfg.Alerts["en"])
		assert.NoError(t, cfg.Validate())
	})

	t.Run("отсутствующий файл дает значения по умолчанию", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("устаревшая пауза в миллисекундах", func(t *testing.T) {
		cfg, err := Load(createTempConfigFile(t, legacyYAML))
		require.NoError(t, err)
		assert.Equal(t, 40*time.Millisecond, cfg.Navigator.DeletePause)
		assert.True(t, cfg.Navigator.StrictInlinePath)
		assert.Equal(t, DefaultHistoryLimit, cfg.Navigator.HistoryLimit)
	})

	t.Run("неверный yaml", func(t *testing.T) {
		_, err := Load(createTempConfigFile(t, "invalid yaml: {"))
		assert.Error(t, err)
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NAV_TELEGRAM_TOKEN", "999:env")
	t.Setenv("NAV_STORAGE_DSN", "postgres://localhost/nav")
	t.Setenv("NAV_LOG_LEVEL", "warn")
	t.Setenv("NAV_HTTP_PORT", "9090")

	cfg, err := Load(createTempConfigFile(t, fullYAML))
	require.NoError(t, err)
	assert.Equal(t, "999:env", cfg.Telegram.Token)
	assert.Equal(t, "postgres://localhost/nav", cfg.Storage.DSN)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.HTTP.Port)

	t.Setenv("NAV_HTTP_PORT", "port")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutator func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"invalid history_limit", func(c *Config) { c.Navigator.HistoryLimit = 0 }, true},
		{"invalid text_limit", func(c *Config) { c.Navigator.TextLimit = -1 }, true},
		{"invalid caption_limit", func(c *Config) { c.Navigator.CaptionLimit = 0 }, true},
		{"invalid album_floor", func(c *Config) { c.Navigator.AlbumFloor = 0 }, true},
		{"album_ceiling below floor", func(c *Config) { c.Navigator.AlbumCeiling = 1 }, true},
		{"unknown album_blend", func(c *Config) { c.Navigator.AlbumBlend = []string{"sticker"} }, true},
		{"negative delete_pause", func(c *Config) { c.Navigator.DeletePause = -time.Second }, true},
		{"invalid logging level", func(c *Config) { c.Logging.Level = "wrong" }, true},
		{"invalid logging format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"invalid redaction", func(c *Config) { c.Logging.Redaction = "none" }, true},
		{"negative ttl", func(c *Config) { c.Storage.TTL = -time.Minute }, true},
		{"invalid cleanup interval", func(c *Config) { c.Storage.CleanupInterval = 0 }, true},
		{"invalid port", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"invalid shutdown timeout", func(c *Config) { c.HTTP.ShutdownTimeout = 0 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutator(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Navigator.HistoryLimit = 0
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigator.history_limit")
	assert.Contains(t, err.Error(), "http.port")
}

func TestRequireToken(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireToken())
	cfg.Telegram.Token = "1:x"
	assert.NoError(t, cfg.RequireToken())
}
