package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgres_EmptyDSN(t *testing.T) {
	_, err := NewPostgres("  ")
	assert.ErrorIs(t, err, ErrInvalidDSN)
}

func TestPostgres_OpenFailureIsSticky(t *testing.T) {
	p, err := NewPostgres("postgres://localhost/none")
	require.NoError(t, err)
	calls := 0
	p.openDB = func(string, string) (*sql.DB, error) {
		calls++
		return nil, errors.New("refused")
	}

	_, err = p.Load(context.Background(), "1")
	assert.Error(t, err)
	err = p.Save(context.Background(), "1", []byte(`{}`))
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, p.Close())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"navigator"`, quoteIdentifier("navigator"))
	assert.Equal(t, `"a""b"`, quoteIdentifier(`a"b`))
	assert.Equal(t, `""`, quoteIdentifier(" "))
}

func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("NAV_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NAV_TEST_POSTGRES_DSN не задан")
	}
	p, err := NewPostgres(dsn)
	require.NoError(t, err)
	defer p.Close()
	p.tableName = "navigator_fsm_documents_test"
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, "it", []byte(`{"state":"a"}`)))
	require.NoError(t, p.Save(ctx, "it", []byte(`{"state":"b"}`)))
	doc, err := p.Load(ctx, "it")
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"b"}`, string(doc))

	keys, err := p.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "it")

	require.NoError(t, p.Delete(ctx, "it"))
	doc, err = p.Load(ctx, "it")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
