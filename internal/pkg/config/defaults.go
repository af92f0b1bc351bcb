package config

import "time"

// Значения конфигурации по умолчанию.
const (
	// Navigator defaults
	DefaultHistoryLimit      = 18
	DefaultTextLimit         = 4096
	DefaultCaptionLimit      = 1024
	DefaultAlbumFloor        = 2
	DefaultAlbumCeiling      = 10
	DefaultStrictInlinePath  = true
	DefaultDetectThumbChange = false
	DefaultDeletePause       = 0 * time.Second

	// Logging defaults
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultLogRedaction = "safe"

	// Storage defaults
	DefaultStorageDSN      = "memory://"
	DefaultCleanupInterval = 1 * time.Hour

	// Telegram defaults
	DefaultPollTimeout = 60 * time.Second

	// HTTP defaults
	DefaultHTTPHost        = "0.0.0.0"
	DefaultHTTPPort        = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Alerts defaults
	DefaultAlert = "Done"
)

// DefaultAlbumBlend — типы медиа, которые можно смешивать в одном альбоме.
var DefaultAlbumBlend = []string{"photo", "video"}
