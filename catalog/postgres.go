package catalog

import (
	"context"

	"github.com/unionrel/unionrel/ref"
)

// PostgresIntrospector reads relation metadata from the PostgreSQL system
// catalogs (pg_index, pg_attribute, pg_constraint, pg_trigger).
type PostgresIntrospector struct{}

// pgPrimaryKeyQuery returns the PK columns of a relation in key order, with
// the canonical rendering of each column's type.
const pgPrimaryKeyQuery = `SELECT a.attname, format_type(a.atttypid, a.atttypmod)
FROM pg_index i
JOIN pg_class c ON c.oid = i.indrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY (i.indkey)
WHERE i.indisprimary AND c.relname = $1 AND n.nspname = $2
ORDER BY array_position(i.indkey, a.attnum)`

const pgRelationExistsQuery = `SELECT EXISTS (
SELECT 1 FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relname = $1 AND n.nspname = $2 AND c.relkind IN ('r', 'p'))`

const pgTriggerExistsQuery = `SELECT EXISTS (
SELECT 1 FROM pg_trigger t
JOIN pg_class c ON c.oid = t.tgrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE t.tgname = $1 AND c.relname = $2 AND n.nspname = $3 AND NOT t.tgisinternal)`

const pgConstraintExistsQuery = `SELECT EXISTS (
SELECT 1 FROM pg_constraint x
JOIN pg_class c ON c.oid = x.conrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE x.conname = $1 AND c.relname = $2 AND n.nspname = $3)`

func pgSchema(rel ref.Relation) string {
	if rel.Schema == "" {
		return "public"
	}
	return rel.Schema
}

// PrimaryKey implements Introspector.
func (PostgresIntrospector) PrimaryKey(ctx context.Context, q Querier, rel ref.Relation) ([]KeyColumn, error) {
	rows, err := q.QueryContext(ctx, pgPrimaryKeyQuery, rel.Name, pgSchema(rel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []KeyColumn
	for rows.Next() {
		col := KeyColumn{Position: len(cols) + 1}
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		return cols, nil
	}

	// Distinguish a missing relation from a relation without a key.
	var exists bool
	if err := q.QueryRowContext(ctx, pgRelationExistsQuery, rel.Name, pgSchema(rel)).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, &MetadataError{Relation: rel, Reason: reasonMissing}
	}
	return nil, &MetadataError{Relation: rel, Reason: reasonNoKey}
}

// TriggerExists implements Introspector.
func (PostgresIntrospector) TriggerExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, pgTriggerExistsQuery, name, rel.Name, pgSchema(rel)).Scan(&exists)
	return exists, err
}

// ConstraintExists implements Introspector.
func (PostgresIntrospector) ConstraintExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, pgConstraintExistsQuery, name, rel.Name, pgSchema(rel)).Scan(&exists)
	return exists, err
}
