// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Navigator содержит настройки ядра навигации
type Navigator struct {
	HistoryLimit      int           `json:"history_limit" yaml:"history_limit"`
	TextLimit         int           `json:"text_limit" yaml:"text_limit"`
	CaptionLimit      int           `json:"caption_limit" yaml:"caption_limit"`
	AlbumFloor        int           `json:"album_floor" yaml:"album_floor"`
	AlbumCeiling      int           `json:"album_ceiling" yaml:"album_ceiling"`
	AlbumBlend        []string      `json:"album_blend" yaml:"album_blend"`
	Truncate          bool          `json:"truncate" yaml:"truncate"`
	StrictInlinePath  bool          `json:"strict_inline_path" yaml:"strict_inline_path"`
	DetectThumbChange bool          `json:"detect_thumb_change" yaml:"detect_thumb_change"`
	DeletePause       time.Duration `json:"delete_pause" yaml:"delete_pause"`

	// Для обратной совместимости. Используйте DeletePause.
	DeletePauseMS int `json:"delete_pause_ms,omitempty" yaml:"delete_pause_ms,omitempty"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level     string `json:"level" yaml:"level"`         // debug, info, warn, error
	Format    string `json:"format" yaml:"format"`       // json, text
	Redaction string `json:"redaction" yaml:"redaction"` // debug, safe, paranoid
}

// Storage содержит конфигурацию хранилища состояний
type Storage struct {
	DSN             string        `json:"dsn" yaml:"dsn"`
	TTL             time.Duration `json:"ttl" yaml:"ttl"`
	ValidateSchema  bool          `json:"validate_schema" yaml:"validate_schema"`
	LockDSN         string        `json:"lock_dsn" yaml:"lock_dsn"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// Telegram содержит конфигурацию Bot API
type Telegram struct {
	Token       string        `json:"token" yaml:"token"`
	PollTimeout time.Duration `json:"poll_timeout" yaml:"poll_timeout"`
	Debug       bool          `json:"debug" yaml:"debug"`
}

// HTTP содержит конфигурацию сервера инспекции
type HTTP struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Config содержит конфигурацию приложения
type Config struct {
	Navigator Navigator         `json:"navigator" yaml:"navigator"`
	Logging   Logging           `json:"logging" yaml:"logging"`
	Storage   Storage           `json:"storage" yaml:"storage"`
	Telegram  Telegram          `json:"telegram" yaml:"telegram"`
	HTTP      HTTP              `json:"http" yaml:"http"`
	Alerts    map[string]string `json:"alerts" yaml:"alerts"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		Navigator: Navigator{
			HistoryLimit:      DefaultHistoryLimit,
			TextLimit:         DefaultTextLimit,
			CaptionLimit:      DefaultCaptionLimit,
			AlbumFloor:        DefaultAlbumFloor,
			AlbumCeiling:      DefaultAlbumCeiling,
			AlbumBlend:        append([]string(nil), DefaultAlbumBlend...),
			StrictInlinePath:  DefaultStrictInlinePath,
			DetectThumbChange: DefaultDetectThumbChange,
			DeletePause:       DefaultDeletePause,
		},
		Logging: Logging{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			Redaction: DefaultLogRedaction,
		},
		Storage: Storage{
			DSN:             DefaultStorageDSN,
			CleanupInterval: DefaultCleanupInterval,
		},
		Telegram: Telegram{
			PollTimeout: DefaultPollTimeout,
		},
		HTTP: HTTP{
			Host:            DefaultHTTPHost,
			Port:            DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Alerts: map[string]string{"default": DefaultAlert},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML-файл path
// (если он существует), затем переменные окружения NAV_*, в том числе из .env.
func Load(path string) (*Config, error) {
	// Отсутствие .env файла не ошибка, переменные окружения могут прийти иначе.
	_ = godotenv.Load()

	cfg := Default()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось применить переменные окружения: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// loadFromYAML накладывает YAML-файл поверх cfg. Отсутствующий файл пропускается.
func loadFromYAML(filename string, cfg *Config) error {
	if filename == "" {
		return nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// applyEnv переопределяет значения из переменных окружения.
func applyEnv(cfg *Config) error {
	cfg.Telegram.Token = getEnv("NAV_TELEGRAM_TOKEN", cfg.Telegram.Token)
	cfg.Storage.DSN = getEnv("NAV_STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.LockDSN = getEnv("NAV_LOCK_DSN", cfg.Storage.LockDSN)
	cfg.Logging.Level = getEnv("NAV_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Redaction = getEnv("NAV_LOG_REDACTION", cfg.Logging.Redaction)

	if portStr := os.Getenv("NAV_HTTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("недопустимый NAV_HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}
	return nil
}

// normalize переносит устаревшие поля и приводит регистр перечислений.
func (c *Config) normalize() {
	if c.Navigator.DeletePause == 0 && c.Navigator.DeletePauseMS > 0 {
		c.Navigator.DeletePause = time.Duration(c.Navigator.DeletePauseMS) * time.Millisecond
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Redaction = strings.ToLower(c.Logging.Redaction)
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// Validate проверяет значения конфигурации и возвращает по одной ошибке на каждое неверное поле.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	n := c.Navigator
	if n.HistoryLimit <= 0 {
		fail("navigator.history_limit должно быть положительным")
	}
	if n.TextLimit <= 0 {
		fail("navigator.text_limit должно быть положительным")
	}
	if n.CaptionLimit <= 0 {
		fail("navigator.caption_limit должно быть положительным")
	}
	if n.AlbumFloor < 1 {
		fail("navigator.album_floor должно быть не меньше 1")
	}
	if n.AlbumCeiling < n.AlbumFloor {
		fail("navigator.album_ceiling должно быть не меньше album_floor")
	}
	for i, kind := range n.AlbumBlend {
		if !knownMedia(kind) {
			fail("navigator.album_blend[%d]: неизвестный тип медиа %q", i, kind)
		}
	}
	if n.DeletePause < 0 {
		fail("navigator.delete_pause должно быть неотрицательным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		fail("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		fail("logging.format должен быть одним из: json, text")
	}
	switch c.Logging.Redaction {
	case "debug", "safe", "paranoid":
	default:
		fail("logging.redaction должен быть одним из: debug, safe, paranoid")
	}

	if c.Storage.TTL < 0 {
		fail("storage.ttl должно быть неотрицательным")
	}
	if c.Storage.CleanupInterval <= 0 {
		fail("storage.cleanup_interval должно быть положительным")
	}

	if c.Telegram.PollTimeout < 0 {
		fail("telegram.poll_timeout должно быть неотрицательным")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		fail("http.port должен быть действительным номером порта (1-65535)")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		fail("http.shutdown_timeout должно быть положительным")
	}

	return errors.Join(errs...)
}

// RequireToken проверяет наличие токена бота для команд, которые работают с Bot API.
func (c *Config) RequireToken() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token не может быть пустым (или задайте NAV_TELEGRAM_TOKEN)")
	}
	return nil
}

func knownMedia(kind string) bool {
	switch kind {
	case "photo", "video", "animation", "audio", "document", "voice", "video_note":
		return true
	}
	return false
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
