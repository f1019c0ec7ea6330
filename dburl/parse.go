// Package dburl infers dialects from database URLs and opens database/sql
// handles with the matching driver, which is how migration scripts obtain
// the connection they hand to a binding registrar.
package dburl

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database dialects.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
)

// InferDialectFromDBUrl returns the dialect ("postgres", "mysql", or "sqlite")
// based on the URL scheme.
func InferDialectFromDBUrl(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDialect, scheme)
	}
}

// Open opens a database handle for the URL and returns it with the inferred
// dialect. Postgres URLs pass through to pgx; MySQL URLs are translated to
// the driver's DSN form; SQLite URLs become file: URIs with foreign-key
// enforcement switched on, which the binding cascades rely on.
func Open(dbURL string) (*sql.DB, string, error) {
	dialect, err := InferDialectFromDBUrl(dbURL)
	if err != nil {
		return nil, "", err
	}

	var db *sql.DB
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("pgx", dbURL)
	case DialectMySQL:
		dsn, derr := mysqlDSN(dbURL)
		if derr != nil {
			return nil, "", derr
		}
		db, err = sql.Open("mysql", dsn)
	case DialectSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dbURL))
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", dialect, err)
	}
	return db, dialect, nil
}

// mysqlDSN translates a mysql:// URL into the go-sql-driver DSN form:
// user:password@tcp(host:port)/dbname?params
func mysqlDSN(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var sb strings.Builder
	if u.User != nil {
		sb.WriteString(u.User.Username())
		if pass, ok := u.User.Password(); ok {
			sb.WriteString(":")
			sb.WriteString(pass)
		}
		sb.WriteString("@")
	}
	host := u.Host
	if host != "" {
		if u.Port() == "" {
			host += ":3306"
		}
		sb.WriteString("tcp(" + host + ")")
	}
	sb.WriteString("/")
	sb.WriteString(strings.TrimPrefix(u.Path, "/"))
	if u.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(u.RawQuery)
	}
	return sb.String(), nil
}

// sqliteDSN translates a sqlite:// URL into a modernc.org/sqlite file: URI.
func sqliteDSN(dbURL string) string {
	path := dbURL
	for _, prefix := range []string{"sqlite3://", "sqlite://", "sqlite3:", "sqlite:"} {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_pragma=foreign_keys(1)"
}

// ParseDatabaseName extracts the database name from a URL.
// Returns an empty string if no database name is present.
func ParseDatabaseName(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return ""
	}

	return strings.TrimPrefix(u.Path, "/")
}

// BuildPostgresURL constructs a PostgreSQL connection URL.
// Format: postgres://user@host:port/dbname
func BuildPostgresURL(dbname, user, host string, port int) string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", user, host, port, dbname)
}

// BuildMySQLURL constructs a MySQL connection URL (TCP, no socket).
// Format: mysql://user@host:port/dbname
func BuildMySQLURL(dbname, user, host string, port int) string {
	return fmt.Sprintf("mysql://%s@%s:%d/%s", user, host, port, dbname)
}

// BuildSQLiteURL constructs a SQLite connection URL.
// Format: sqlite:///path/to/file.db
func BuildSQLiteURL(filepath string) string {
	// Absolute paths keep their leading slash after the scheme
	if strings.HasPrefix(filepath, "/") {
		return fmt.Sprintf("sqlite://%s", filepath)
	}
	return fmt.Sprintf("sqlite:%s", filepath)
}

// WithDatabaseName returns a new URL with the database name replaced.
func WithDatabaseName(dbURL, dbname string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Path = "/" + dbname
	return u.String(), nil
}
