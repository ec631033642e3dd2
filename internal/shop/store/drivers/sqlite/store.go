package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/greenbite/internal/shop/store/drivers/sqlrepo"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect is the sqlite flavour of the shared repositories.
var Dialect = sqlrepo.Dialect{
	Name:                  "sqlite",
	IsUniqueViolation:     hasCode(sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY),
	IsForeignKeyViolation: hasCode(sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY),
}

type Store struct {
	*sqlrepo.DB
}

// NewStore opens dsn with foreign keys enforced on every pooled connection.
// In-memory databases are pinned to one connection, otherwise each
// connection would see its own empty database.
func NewStore(dsn string) (*Store, error) {
	dsn = withPragma(dsn, "foreign_keys(1)")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{DB: sqlrepo.NewDB(db, Dialect)}, nil
}

func withPragma(dsn, pragma string) string {
	if strings.Contains(dsn, "_pragma="+pragma) {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}

func hasCode(codes ...int) func(error) bool {
	return func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		for _, c := range codes {
			if se.Code() == c {
				return true
			}
		}
		return false
	}
}
