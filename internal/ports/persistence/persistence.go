package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Persistence запросы к БД; реализуется и подключением, и транзакцией
type Persistence interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
	ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error)
	NamedExec(ctx context.Context, query string, arg interface{}) error
	QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

type Transaction interface {
	Persistence
	Commit() error
	Rollback() error
}

// Transactor запуск функции в транзакции с commit/rollback
type Transactor interface {
	Persistence
	BeginTx(ctx context.Context) (Transaction, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}
