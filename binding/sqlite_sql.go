package binding

// sqlite_sql.go - SQLite statement generation for one binding.
//
// SQLite supports deferred foreign keys, cascades, and before-row triggers,
// but cannot add a table-level constraint to an existing table. The
// installer therefore rebuilds the variant: it rewrites the stored CREATE
// TABLE with the foreign-key clause spliced in, copies the rows across,
// swaps the tables, and replays the variant's indexes and triggers. The
// rebuild runs inside the binding transaction with foreign-key enforcement
// deferred to commit.
//
// Trigger bodies inline the mapped statements; SQLite has no procedural
// layer to parameterize, so the mapping descriptor is expanded mechanically
// instead of interpreted at write time.

import (
	"context"
	"fmt"
	"strings"

	"github.com/unionrel/unionrel/ref"
	"github.com/unionrel/unionrel/sqlident"
)

// sqliteDeferSQL postpones foreign-key enforcement to the end of the current
// transaction, so the table swap never observes a half-moved state.
const sqliteDeferSQL = "PRAGMA defer_foreign_keys = ON"

const sqliteRebuildSuffix = "_rebind"

func sqliteBackfillSQL(b *Binding) string {
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		sqlident.Qualify(b.Union),
		strings.Join(sqlident.QuoteAll(b.Mapping.UnionColumns()), ", "),
		strings.Join(sqlident.QuoteAll(b.Mapping.VariantColumns()), ", "),
		sqlident.Qualify(b.Variant))
}

// sqliteConstraintClause is the table-level clause spliced into the
// variant's rebuilt definition. Trigger bodies and REFERENCES targets must
// stay schema-bare: SQLite resolves them in the table's own schema.
func sqliteConstraintClause(b *Binding) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE CASCADE ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED",
		sqlident.Quote(b.Constraint),
		strings.Join(sqlident.QuoteAll(b.Mapping.VariantColumns()), ", "),
		sqlident.Quote(b.Union.Name),
		strings.Join(sqlident.QuoteAll(b.Mapping.UnionColumns()), ", "))
}

// sqliteRewriteCreate splices a table-level constraint clause into a stored
// CREATE TABLE statement and renames the table being defined. The clause
// lands just before the closing parenthesis of the column list, which is the
// last parenthesis in the definition (table options carry none).
func sqliteRewriteCreate(createSQL, newName, clause string) (string, error) {
	open := strings.Index(createSQL, "(")
	end := strings.LastIndex(createSQL, ")")
	if open < 0 || end < open {
		return "", fmt.Errorf("unparseable table definition: %q", createSQL)
	}
	return "CREATE TABLE " + sqlident.Quote(newName) + " " +
		createSQL[open:end] + ", " + clause + createSQL[end:], nil
}

// sqliteObject is a dependent index or trigger captured before the rebuild
// drops it with the old table.
type sqliteObject struct {
	Name string
	SQL  string
}

func sqliteMasterName(rel ref.Relation) string {
	if rel.Schema == "" {
		return "sqlite_master"
	}
	return sqlident.Quote(rel.Schema) + ".sqlite_master"
}

// sqliteTableSQL fetches the variant's stored CREATE TABLE statement.
func sqliteTableSQL(ctx context.Context, conn Conn, rel ref.Relation) (string, error) {
	query := fmt.Sprintf("SELECT sql FROM %s WHERE type = 'table' AND name = ?", sqliteMasterName(rel))
	var ddl string
	if err := conn.QueryRowContext(ctx, query, rel.Name).Scan(&ddl); err != nil {
		return "", err
	}
	return ddl, nil
}

// sqliteDependentObjects fetches the variant's indexes and triggers so they
// can be replayed after the table swap. Auto-created objects (implicit PK
// and UNIQUE indexes) store no SQL and are recreated by the engine itself.
func sqliteDependentObjects(ctx context.Context, conn Conn, rel ref.Relation) ([]sqliteObject, error) {
	query := fmt.Sprintf("SELECT name, sql FROM %s WHERE tbl_name = ? AND type IN ('index', 'trigger') AND sql IS NOT NULL", sqliteMasterName(rel))
	rows, err := conn.QueryContext(ctx, query, rel.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objs []sqliteObject
	for rows.Next() {
		var o sqliteObject
		if err := rows.Scan(&o.Name, &o.SQL); err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

// sqliteRebuildSQL produces the swap statements: copy into the rebuilt
// table, drop the original, take over its name.
func sqliteRebuildSQL(rel ref.Relation) []string {
	tmp := rel.Name + sqliteRebuildSuffix
	qualify := func(name string) string {
		return sqlident.Qualify(ref.Relation{Schema: rel.Schema, Name: name})
	}
	return []string{
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", qualify(tmp), sqlident.Qualify(rel)),
		fmt.Sprintf("DROP TABLE %s", sqlident.Qualify(rel)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", qualify(tmp), sqlident.Quote(rel.Name)),
	}
}

func sqliteTriggerSQL(b *Binding, hook string) string {
	union := sqlident.Quote(b.Union.Name)
	variant := sqlident.Quote(b.Variant.Name)
	name := sqlident.Qualify(ref.Relation{
		Schema: b.Variant.Schema,
		Name:   TriggerName(b.Union, b.Variant, hook),
	})

	uCols := sqlident.QuoteAll(b.Mapping.UnionColumns())
	vCols := sqlident.QuoteAll(b.Mapping.VariantColumns())

	var event, body string
	switch hook {
	case HookInsert:
		newVals := make([]string, len(vCols))
		for i, c := range vCols {
			newVals[i] = "NEW." + c
		}
		event = "INSERT"
		body = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			union, strings.Join(uCols, ", "), strings.Join(newVals, ", "))
	case HookUpdate:
		sets := make([]string, len(uCols))
		conds := make([]string, len(uCols))
		for i := range uCols {
			sets[i] = uCols[i] + " = NEW." + vCols[i]
			conds[i] = uCols[i] + " = OLD." + vCols[i]
		}
		event = "UPDATE OF " + strings.Join(vCols, ", ")
		body = fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			union, strings.Join(sets, ", "), strings.Join(conds, " AND "))
	case HookDelete:
		conds := make([]string, len(uCols))
		for i := range uCols {
			conds[i] = uCols[i] + " = OLD." + vCols[i]
		}
		event = "DELETE"
		body = fmt.Sprintf("DELETE FROM %s WHERE %s",
			union, strings.Join(conds, " AND "))
	}

	return fmt.Sprintf("CREATE TRIGGER %s BEFORE %s ON %s FOR EACH ROW BEGIN %s; END",
		name, event, variant, body)
}
