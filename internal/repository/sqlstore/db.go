// Package sqlstore implements the repositories on Postgres or MySQL through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"storefront/internal/domain"
)

// Supported drivers.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
)

// DB is a caller-owned connection handle shared by every sqlstore repository.
type DB struct {
	db      *sqlx.DB
	dialect string
	quote   *strings.Replacer
}

// Open connects to the database and pings it. MySQL DSNs need parseTime=true.
func Open(ctx context.Context, driver, dsn string) (_ *DB, rerr error) {
	if driver != Postgres && driver != MySQL {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}
	// Try to close DB on error.
	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, conn.Close())
		}
	}()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", translate(err))
	}
	return New(conn, driver), nil
}

// New wraps an existing sqlx handle.
func New(conn *sqlx.DB, dialect string) *DB {
	d := &DB{db: conn, dialect: dialect}
	if dialect == MySQL {
		d.quote = strings.NewReplacer(`"order"`, "`order`")
	} else {
		d.quote = strings.NewReplacer()
	}
	return d
}

// Close releases the connection pool.
func (d *DB) Close() error { return d.db.Close() }

// Ping checks the database is reachable.
func (d *DB) Ping(ctx context.Context) error { return translate(d.db.PingContext(ctx)) }

// Dialect returns the driver name the handle was opened with.
func (d *DB) Dialect() string { return d.dialect }

// q rewrites a query written with ANSI identifier quoting and '?' placeholders for the dialect.
func (d *DB) q(query string) string {
	return d.db.Rebind(d.quote.Replace(query))
}

// ext returns the transaction carried by ctx, or the pool.
// sortKey is the ORDER BY expression for a whitelisted product column. Both
// dialects order enums by declaration, so type is compared as text.
func (d *DB) sortKey(column string) string {
	if column != "type" {
		return column
	}
	if d.dialect == MySQL {
		return "CAST(type AS CHAR)"
	}
	return "type::text"
}

func (d *DB) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return d.db
}

// insert runs an INSERT and returns the generated key in idColumn.
func (d *DB) insert(ctx context.Context, query, idColumn string, args ...any) (int64, error) {
	e := d.ext(ctx)
	if d.dialect == Postgres {
		var id int64
		err := sqlx.GetContext(ctx, e, &id, d.q(query+" RETURNING "+idColumn), args...)
		return id, translate(err)
	}
	res, err := e.ExecContext(ctx, d.q(query), args...)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	return id, translate(err)
}

// exec runs a statement and returns the affected row count.
func (d *DB) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.ext(ctx).ExecContext(ctx, d.q(query), args...)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return n, translate(err)
}

func (d *DB) get(ctx context.Context, dest any, query string, args ...any) error {
	return translate(sqlx.GetContext(ctx, d.ext(ctx), dest, d.q(query), args...))
}

func (d *DB) selectRows(ctx context.Context, dest any, query string, args ...any) error {
	return translate(sqlx.SelectContext(ctx, d.ext(ctx), dest, d.q(query), args...))
}

// translate maps driver errors onto the domain taxonomy. sql.ErrNoRows and
// context.Canceled pass through unchanged.
func translate(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503":
			return domain.Conflict(pqErr.Message)
		case "23514":
			return domain.Invalid(pqErr.Constraint, pqErr.Message)
		}
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1451, 1452:
			return domain.Conflict(myErr.Message)
		case 3819:
			return domain.Invalid("constraint", myErr.Message)
		}
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}
