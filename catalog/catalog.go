// Package catalog introspects relation metadata from a live database: ordered
// primary-key columns with their types, and existence checks for the schema
// objects a binding installs. Introspectors issue pure queries and are safe
// for concurrent use.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/unionrel/unionrel/ref"
)

// Supported database dialects.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// KeyColumn is one column of a relation's primary key, in ordinal position.
type KeyColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Position int    `json:"position"` // 1-based position within the key
}

// Querier is the subset of *sql.DB / *sql.Tx the introspectors need, so that
// introspection can run inside the caller's transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Introspector resolves relation metadata for one dialect.
type Introspector interface {
	// PrimaryKey returns the relation's primary-key columns in key order.
	// Fails with *MetadataError if the relation does not exist or has no
	// primary key.
	PrimaryKey(ctx context.Context, q Querier, rel ref.Relation) ([]KeyColumn, error)

	// TriggerExists reports whether a trigger with the given name exists.
	TriggerExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error)

	// ConstraintExists reports whether the named constraint exists on rel.
	ConstraintExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error)
}

// ForDialect returns the introspector for a dialect.
func ForDialect(dialect string) (Introspector, error) {
	switch dialect {
	case DialectPostgres:
		return PostgresIntrospector{}, nil
	case DialectSQLite:
		return SQLiteIntrospector{}, nil
	case DialectMySQL:
		return MySQLIntrospector{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// MetadataError reports a relation that cannot serve as a binding endpoint:
// it does not exist, or it has no primary key.
type MetadataError struct {
	Relation ref.Relation
	Reason   string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata: relation %s: %s", e.Relation, e.Reason)
}

const (
	reasonMissing = "relation does not exist"
	reasonNoKey   = "relation has no primary key"
)
