package guard

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

const (
	advisoryNamespace = "telegram-navigator"
	advisoryTimeout   = 5 * time.Second
)

// AdvisoryLatch реализует ports.ScopeLockProvider поверх сеансовых
// advisory-блокировок Postgres. Внутри процесса ключ дополнительно
// сериализуется реестром, чтобы не держать по соединению на каждого ожидающего.
type AdvisoryLatch struct {
	db    *sql.DB
	local *Registry
}

// NewAdvisoryLatch открывает пул соединений для блокировок.
func NewAdvisoryLatch(dsn string) (*AdvisoryLatch, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("пустой DSN для advisory-блокировок")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть соединение с Postgres: %w", err)
	}
	return &AdvisoryLatch{db: db, local: NewRegistry()}, nil
}

// NewAdvisoryLatchFromDB использует уже открытый пул.
func NewAdvisoryLatchFromDB(db *sql.DB) *AdvisoryLatch {
	return &AdvisoryLatch{db: db, local: NewRegistry()}
}

// Latch реализует ports.ScopeLockProvider.
func (a *AdvisoryLatch) Latch(key domain.ScopeKey) ports.Lock {
	return &advisoryLock{owner: a, key: key, local: a.local.Latch(key)}
}

// Close закрывает пул соединений.
func (a *AdvisoryLatch) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// LockKey возвращает 64-битный ключ advisory-блокировки для ключа области.
func LockKey(key domain.ScopeKey) int64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(advisoryNamespace))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write([]byte(key.String()))
	return int64(hasher.Sum64())
}

type advisoryLock struct {
	owner *AdvisoryLatch
	key   domain.ScopeKey
	local ports.Lock
	conn  *sql.Conn
}

// Acquire берет локальную блокировку, затем блокировку Postgres на выделенном соединении.
func (l *advisoryLock) Acquire(ctx context.Context) error {
	if err := l.local.Acquire(ctx); err != nil {
		return err
	}
	conn, err := l.owner.db.Conn(ctx)
	if err != nil {
		l.local.Release()
		return fmt.Errorf("не удалось получить соединение для блокировки: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", LockKey(l.key)); err != nil {
		_ = conn.Close()
		l.local.Release()
		return fmt.Errorf("не удалось взять advisory-блокировку %s: %w", l.key, err)
	}
	l.conn = conn
	return nil
}

// Release снимает блокировку Postgres и возвращает соединение в пул.
func (l *advisoryLock) Release() {
	if l.conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), advisoryTimeout)
	defer cancel()
	if _, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", LockKey(l.key)); err != nil {
		// Соединение выбрасывается из пула: сеансовая блокировка снимется при его закрытии.
		_ = l.conn.Raw(func(any) error { return driver.ErrBadConn })
	}
	_ = l.conn.Close()
	l.conn = nil
	l.local.Release()
}
