package catalog

import (
	"context"

	"github.com/unionrel/unionrel/ref"
)

// MySQLIntrospector reads relation metadata from information_schema.
type MySQLIntrospector struct{}

// myPrimaryKeyQuery returns the PK columns of a relation in key order.
// COLUMN_TYPE carries the full rendering ("bigint", "varchar(20)").
const myPrimaryKeyQuery = `SELECT k.COLUMN_NAME, c.COLUMN_TYPE
FROM information_schema.KEY_COLUMN_USAGE k
JOIN information_schema.COLUMNS c
  ON c.TABLE_SCHEMA = k.TABLE_SCHEMA AND c.TABLE_NAME = k.TABLE_NAME AND c.COLUMN_NAME = k.COLUMN_NAME
WHERE k.CONSTRAINT_NAME = 'PRIMARY'
  AND k.TABLE_NAME = ?
  AND k.TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
ORDER BY k.ORDINAL_POSITION`

const myRelationExistsQuery = `SELECT COUNT(*) FROM information_schema.TABLES
WHERE TABLE_NAME = ? AND TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())`

const myTriggerExistsQuery = `SELECT COUNT(*) FROM information_schema.TRIGGERS
WHERE TRIGGER_NAME = ? AND TRIGGER_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())`

const myConstraintExistsQuery = `SELECT COUNT(*) FROM information_schema.TABLE_CONSTRAINTS
WHERE CONSTRAINT_NAME = ? AND TABLE_NAME = ? AND TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())`

// PrimaryKey implements Introspector.
func (MySQLIntrospector) PrimaryKey(ctx context.Context, q Querier, rel ref.Relation) ([]KeyColumn, error) {
	rows, err := q.QueryContext(ctx, myPrimaryKeyQuery, rel.Name, rel.Schema)
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

	var n int
	if err := q.QueryRowContext(ctx, myRelationExistsQuery, rel.Name, rel.Schema).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &MetadataError{Relation: rel, Reason: reasonMissing}
	}
	return nil, &MetadataError{Relation: rel, Reason: reasonNoKey}
}

// TriggerExists implements Introspector.
func (MySQLIntrospector) TriggerExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, myTriggerExistsQuery, name, rel.Schema).Scan(&n)
	return n > 0, err
}

// ConstraintExists implements Introspector.
func (MySQLIntrospector) ConstraintExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, myConstraintExistsQuery, name, rel.Name, rel.Schema).Scan(&n)
	return n > 0, err
}
