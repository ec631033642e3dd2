package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/store/drivers/sqlrepo"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Dialect is the postgres flavour of the shared repositories.
var Dialect = sqlrepo.Dialect{
	Name:                  "postgres",
	Numbered:              true,
	IsUniqueViolation:     hasCode(codeUniqueViolation),
	IsForeignKeyViolation: hasCode(codeForeignKeyViolation),
}

type Store struct {
	*sqlrepo.DB
}

// NewStore opens a pgx-backed pool for dsn and checks it is reachable.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an existing pool.
func New(db *sql.DB) *Store {
	return &Store{DB: sqlrepo.NewDB(db, Dialect)}
}

func hasCode(code string) func(error) bool {
	return func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == code
	}
}
