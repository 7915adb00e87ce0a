package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is satisfied by *sqlx.DB and *sqlx.Tx; repositories accept it
	// so service-level transactions can span repository calls.
	DBExecutor interface {
		sqlx.ExtContext
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// Tx is a transaction usable as a repository executor.
	Tx interface {
		DBExecutor

		Commit() error
		Rollback() error
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	}
)

// NewDB adapts a *sqlx.DB to the DB interface.
func NewDB(db *sqlx.DB) DB {
	return sqlxDB{db}
}

type sqlxDB struct {
	*sqlx.DB
}

func (db sqlxDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	return db.DB.BeginTxx(ctx, opts)
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
