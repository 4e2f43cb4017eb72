package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits or rolls back

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) Groups() store.Groups               { return &groupsRepo{db: t.tx} }
func (t *txStore) Schemas() store.Schemas             { return &schemasRepo{db: t.tx} }
func (t *txStore) Sections() store.Sections           { return &sectionsRepo{db: t.tx} }
func (t *txStore) AccessTokens() store.AccessTokens   { return &accessTokensRepo{db: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: t.tx} }
