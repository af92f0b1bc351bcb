package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fsm_documents (
	scope_key  TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

// SQLite хранит документы в файле SQLite в режиме WAL.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite открывает или создает базу по пути path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось подключиться к базе sqlite: %w", err)
	}

	// SQLite допускает одного писателя.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать схему sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("не удалось выполнить %q: %w", pragma, err)
		}
	}
	return nil
}

// Load реализует Backend.
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM fsm_documents WHERE scope_key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать документ %s: %w", key, err)
	}
	return []byte(doc), nil
}

// Save реализует Backend.
func (s *SQLite) Save(ctx context.Context, key string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fsm_documents (scope_key, document, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (scope_key)
		DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`, key, string(doc))
	if err != nil {
		return fmt.Errorf("не удалось сохранить документ %s: %w", key, err)
	}
	return nil
}

// Delete реализует Backend.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fsm_documents WHERE scope_key = ?`, key); err != nil {
		return fmt.Errorf("не удалось удалить документ %s: %w", key, err)
	}
	return nil
}

// Keys реализует Backend.
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scope_key FROM fsm_documents ORDER BY scope_key`)
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

// Close закрывает базу.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
