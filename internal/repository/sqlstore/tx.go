package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storefront/internal/repository"
)

type txKey struct{}

func txFrom(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

var _ repository.TxManager = (*DB)(nil)

// WithTransaction runs fn in a READ COMMITTED transaction carried by ctx.
// Nested calls join the outer transaction. Any error from fn, or ctx ending
// before commit, rolls everything back.
func (d *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (rerr error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	tx, err := d.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return translate(err)
	}
	defer func() {
		if rerr == nil {
			return
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			rerr = errors.Join(rerr, translate(err))
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return translate(err)
	}
	return translate(tx.Commit())
}
