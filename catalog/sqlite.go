package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/unionrel/unionrel/ref"
	"github.com/unionrel/unionrel/sqlident"
)

// SQLiteIntrospector reads relation metadata via PRAGMA table_info and the
// sqlite_master catalog.
type SQLiteIntrospector struct{}

// sqliteMaster returns the catalog table for the relation's schema.
// PRAGMA and catalog reads cannot be parameterized, so names are quoted in.
func sqliteMaster(rel ref.Relation) string {
	if rel.Schema == "" {
		return "sqlite_master"
	}
	return sqlident.Quote(rel.Schema) + ".sqlite_master"
}

func sqliteTableInfo(rel ref.Relation) string {
	if rel.Schema == "" {
		return fmt.Sprintf("PRAGMA table_info(%s)", sqlident.Quote(rel.Name))
	}
	return fmt.Sprintf("PRAGMA %s.table_info(%s)", sqlident.Quote(rel.Schema), sqlident.Quote(rel.Name))
}

// PrimaryKey implements Introspector.
func (SQLiteIntrospector) PrimaryKey(ctx context.Context, q Querier, rel ref.Relation) ([]KeyColumn, error) {
	rows, err := q.QueryContext(ctx, sqliteTableInfo(rel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pkCol struct {
		col  KeyColumn
		rank int
	}
	var (
		pk    []pkCol
		found bool
	)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    *string
			pkRank  int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pkRank); err != nil {
			return nil, err
		}
		found = true
		if pkRank > 0 {
			pk = append(pk, pkCol{col: KeyColumn{Name: name, Type: typ}, rank: pkRank})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, &MetadataError{Relation: rel, Reason: reasonMissing}
	}
	if len(pk) == 0 {
		return nil, &MetadataError{Relation: rel, Reason: reasonNoKey}
	}

	// PRAGMA table_info reports columns in table order; the pk field carries
	// the 1-based position within the key.
	sort.Slice(pk, func(i, j int) bool { return pk[i].rank < pk[j].rank })
	cols := make([]KeyColumn, len(pk))
	for i, p := range pk {
		p.col.Position = i + 1
		cols[i] = p.col
	}
	return cols, nil
}

// TriggerExists implements Introspector.
func (SQLiteIntrospector) TriggerExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE type = 'trigger' AND name = ?", sqliteMaster(rel))
	var n int
	if err := q.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ConstraintExists implements Introspector. SQLite does not track named
// constraints as catalog objects, so this checks the relation's stored DDL
// for the quoted constraint name.
func (SQLiteIntrospector) ConstraintExists(ctx context.Context, q Querier, rel ref.Relation, name string) (bool, error) {
	query := fmt.Sprintf("SELECT sql FROM %s WHERE type = 'table' AND name = ?", sqliteMaster(rel))
	var ddl string
	if err := q.QueryRowContext(ctx, query, rel.Name).Scan(&ddl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return strings.Contains(ddl, sqlident.Quote(name)), nil
}
