package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store exposes the typed queries the verb handlers run. It works against
// either the pool or an open transaction, depending on the Database it wraps.
type Store struct {
	db Database
}

func NewStore(db Database) *Store {
	if db == nil {
		panic("db passed to 'NewStore()' is nil!")
	}
	return &Store{db: db}
}

// TxStore is a Store bound to one transaction. The dispatcher makes exactly
// one Commit or Rollback call per invocation.
type TxStore struct {
	*Store
	commit   func(ctx context.Context) error
	rollback func(ctx context.Context) error
}

func (s *TxStore) Commit(ctx context.Context) error {
	return s.commit(ctx)
}

func (s *TxStore) Rollback(ctx context.Context) error {
	return s.rollback(ctx)
}

// Begin opens a transaction-scoped store on the pool.
func Begin(ctx context.Context, pool *pgxpool.Pool) (*TxStore, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &TxStore{
		Store:    NewStore(tx),
		commit:   tx.Commit,
		rollback: tx.Rollback,
	}, nil
}
