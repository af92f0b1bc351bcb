package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

const (
	postgresTableName        = "navigator_fsm_documents"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// Postgres хранит документы в таблице PostgreSQL. Подключение и схема
// создаются при первом обращении.
type Postgres struct {
	dsn       string
	tableName string
	openDB    sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// NewPostgres создает бэкенд для строки подключения dsn.
func NewPostgres(dsn string) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: пустая строка подключения postgres", ErrInvalidDSN)
	}
	return &Postgres{dsn: dsn, tableName: postgresTableName, openDB: sql.Open}, nil
}

// Load реализует Backend.
func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT document FROM %s WHERE scope_key = $1", quoteIdentifier(p.tableName))
	var doc string
	err := p.db.QueryRowContext(ctx, query, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать документ %s: %w", key, err)
	}
	return []byte(doc), nil
}

// Save реализует Backend.
func (p *Postgres) Save(ctx context.Context, key string, doc []byte) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (scope_key, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (scope_key)
		DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`, quoteIdentifier(p.tableName))
	if _, err := p.db.ExecContext(ctx, query, key, string(doc)); err != nil {
		return fmt.Errorf("не удалось сохранить документ %s: %w", key, err)
	}
	return nil
}

// Delete реализует Backend.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE scope_key = $1", quoteIdentifier(p.tableName))
	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("не удалось удалить документ %s: %w", key, err)
	}
	return nil
}

// Keys реализует Backend.
func (p *Postgres) Keys(ctx context.Context) ([]string, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("SELECT scope_key FROM %s ORDER BY scope_key", quoteIdentifier(p.tableName)))
	if err != nil {
		return nil, fmt.Errorf("не удалось перечислить документы: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("не удалось прочитать ключ: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close закрывает подключение, если оно было открыто.
func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) ensureReady() error {
	p.initOnce.Do(func() {
		db, err := p.openDB("postgres", p.dsn)
		if err != nil {
			p.initErr = fmt.Errorf("не удалось открыть подключение postgres: %w", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				scope_key TEXT PRIMARY KEY,
				document TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, quoteIdentifier(p.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			p.initErr = fmt.Errorf("не удалось создать таблицу %s: %w", p.tableName, err)
			return
		}
		p.db = db
	})
	return p.initErr
}

func quoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
