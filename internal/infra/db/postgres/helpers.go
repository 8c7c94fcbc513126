package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"activation-code-admin/internal/domain/ports/repository"
)

// The qx handle is either nil (pool path), a pgx.Tx from the transaction
// manager, or a dedicated *pgxpool.Conn. These helpers pick the right
// executor so repository methods stay free of the switch boilerplate.

func execSQL(ctx context.Context, pool *pgxpool.Pool, qx repository.Tx, q string, args ...interface{}) (pgconn.CommandTag, error) {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.Exec(ctx, q, args...)
	case *pgxpool.Conn:
		return v.Exec(ctx, q, args...)
	default:
		return pool.Exec(ctx, q, args...)
	}
}

func pickRow(ctx context.Context, pool *pgxpool.Pool, qx repository.Tx, q string, args ...interface{}) pgx.Row {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.QueryRow(ctx, q, args...)
	case *pgxpool.Conn:
		return v.QueryRow(ctx, q, args...)
	default:
		return pool.QueryRow(ctx, q, args...)
	}
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, qx repository.Tx, q string, args ...interface{}) (pgx.Rows, error) {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.Query(ctx, q, args...)
	case *pgxpool.Conn:
		return v.Query(ctx, q, args...)
	default:
		return pool.Query(ctx, q, args...)
	}
}

// pgErrCode extracts the SQLSTATE from a pgconn error, or "".
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const (
	codeUniqueViolation = "23505"
	codeInvalidRegexp   = "2201B"
)
