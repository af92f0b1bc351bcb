// Package storage хранит документы FSM по ключу области: состояние, данные
// состояния и пространство навигатора с историей и маркером.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidDSN — строка подключения не распознана.
var ErrInvalidDSN = errors.New("invalid storage dsn")

// Backend хранит сериализованные документы по ключу. Реализации безопасны
// для одновременного использования.
type Backend interface {
	// Load возвращает документ или nil, если его нет.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
	// Keys перечисляет сохраненные ключи в лексикографическом порядке.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Open создает бэкенд по строке подключения:
//
//	memory:// или пустая строка — память (параметр ttl, например memory://?ttl=24h);
//	sqlite:///path/to/file.db — SQLite;
//	postgres://... — PostgreSQL.
func Open(dsn string) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return NewMemory(0), nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}
	switch scheme := strings.ToLower(parsed.Scheme); scheme {
	case "memory", "mem":
		var ttl time.Duration
		if raw := parsed.Query().Get("ttl"); raw != "" {
			ttl, err = time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: ttl: %v", ErrInvalidDSN, err)
			}
		}
		return NewMemory(ttl), nil
	case "sqlite", "sqlite3", "file":
		path := parsed.Path
		if parsed.Host != "" {
			path = parsed.Host + path
		}
		if path == "" {
			path = parsed.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("%w: пустой путь к базе sqlite", ErrInvalidDSN)
		}
		return OpenSQLite(path)
	case "postgres", "postgresql":
		return NewPostgres(dsn)
	default:
		return nil, fmt.Errorf("%w: неподдерживаемая схема %q", ErrInvalidDSN, scheme)
	}
}
