package db

import (
	"context"
	"embed"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

//go:embed migrations
var migrations embed.FS

func init() {
	// sqlx does not know the modernc driver name
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open opens a DB and brings the schema up to date.
func Open(ctx context.Context, driver Driver, dsn string) (*sqlx.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:cie.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
		dsn = withForeignKeys(dsn)
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/cie?sslmode=disable"
		}
	default:
		return nil, errors.Errorf("unsupported driver %q", driver)
	}

	dbh, err := sqlx.Open(drvName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if err := dbh.PingContext(ctx); err != nil {
		dbh.Close()
		return nil, errors.Wrap(err, "ping db")
	}
	if err := Migrate(ctx, dbh, driver); err != nil {
		dbh.Close()
		return nil, err
	}
	return dbh, nil
}

// withForeignKeys adds the foreign_keys pragma to a SQLite DSN unless the DSN
// already sets it. The modernc driver applies _pragma params on every new
// connection, so the roster cascade holds across the whole pool.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Migrate applies the embedded migrations for the given driver.
func Migrate(ctx context.Context, dbh *sqlx.DB, driver Driver) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		return errors.Errorf("unsupported driver %q", driver)
	}

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return errors.Wrap(err, "migrations fs")
	}
	provider, err := goose.NewProvider(dialect, dbh.DB, sub)
	if err != nil {
		return errors.Wrap(err, "goose provider")
	}
	if _, err := provider.Up(ctx); err != nil {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}
