package ports

import (
	"context"

	"telegram-navigator/internal/domain"
)

// Lock — исключительная блокировка одного ключа области.
type Lock interface {
	Acquire(ctx context.Context) error
	Release()
}

// ScopeLockProvider выдает блокировку для ключа области.
type ScopeLockProvider interface {
	Latch(key domain.ScopeKey) Lock
}
