package binding

// postgres_sql.go - PostgreSQL statement generation for one binding.
//
// PostgreSQL hosts the full protocol natively: the constraint is DEFERRABLE
// INITIALLY DEFERRED, the downward direction rides the engine's cascades,
// and the upward direction is three row triggers. All triggers share one
// generic plpgsql propagation function; the per-binding column mapping
// travels as trigger arguments, so no procedure body is generated per pair.
//
// Trigger timing is asymmetric. Deferral postpones only the constraint's
// validation; its ON UPDATE / ON DELETE cascade actions still run as soon as
// the union row changes. A BEFORE hook that rewrote the union would have the
// returning cascade modify the hook's own row while the outer statement is
// still positioned on it, which PostgreSQL rejects with SQLSTATE 27000
// ("tuple to be updated/deleted was already modified by an operation
// triggered by the current command"). So only the insert hook runs BEFORE
// the row lands; the update and delete hooks run AFTER, when the returning
// cascade no longer matches the already-mutated row, and the deferred check
// keeps the interim variant-side state legal until commit.

import (
	"fmt"
	"strings"

	"github.com/unionrel/unionrel/sqlident"
)

// pgPropagatorSQL is the generic propagation engine. TG_ARGV carries the
// qualified union name and the two key column lists; the function rebuilds
// the mapped statement and executes it against the union with the row's old
// and new key values. Only the INSERT branch's return value is live (it runs
// in a BEFORE trigger); the update and delete hooks fire AFTER the row, where
// the return value is ignored.
const pgPropagatorSQL = `CREATE OR REPLACE FUNCTION ` + PropagatorName + `() RETURNS trigger
LANGUAGE plpgsql AS $` + PropagatorName + `$
DECLARE
    target       text   := TG_ARGV[0];
    union_cols   text[] := TG_ARGV[1]::text[];
    variant_cols text[] := TG_ARGV[2]::text[];
    cols  text := '';
    vals  text := '';
    sets  text := '';
    conds text := '';
    i     int;
BEGIN
    FOR i IN 1 .. array_length(union_cols, 1) LOOP
        IF i > 1 THEN
            cols  := cols  || ', ';
            vals  := vals  || ', ';
            sets  := sets  || ', ';
            conds := conds || ' AND ';
        END IF;
        cols  := cols  || quote_ident(union_cols[i]);
        vals  := vals  || '($1).' || quote_ident(variant_cols[i]);
        sets  := sets  || quote_ident(union_cols[i]) || ' = ($1).' || quote_ident(variant_cols[i]);
        conds := conds || quote_ident(union_cols[i]) || ' = ($2).' || quote_ident(variant_cols[i]);
    END LOOP;
    IF TG_OP = 'INSERT' THEN
        EXECUTE format('INSERT INTO %s (%s) VALUES (%s)', target, cols, vals) USING NEW;
        RETURN NEW;
    ELSIF TG_OP = 'UPDATE' THEN
        EXECUTE format('UPDATE %s SET %s WHERE %s', target, sets, conds) USING NEW, OLD;
        RETURN NEW;
    END IF;
    EXECUTE format('DELETE FROM %s WHERE %s', target, conds) USING OLD, OLD;
    RETURN OLD;
END
$` + PropagatorName + `$`

// pgBackfillSQL copies every existing key tuple from the variant into the
// union. Executed once, before the constraint is added; a collision with a
// key owned by another variant aborts the whole binding.
func pgBackfillSQL(b *Binding) string {
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		sqlident.Qualify(b.Union),
		strings.Join(sqlident.QuoteAll(b.Mapping.UnionColumns()), ", "),
		strings.Join(sqlident.QuoteAll(b.Mapping.VariantColumns()), ", "),
		sqlident.Qualify(b.Variant))
}

// pgConstraintSQL adds the deferred cascading foreign key from the variant's
// key to the union's key.
func pgConstraintSQL(b *Binding) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE CASCADE ON DELETE CASCADE DEFERRABLE INITIALLY DEFERRED",
		sqlident.Qualify(b.Variant),
		sqlident.Quote(b.Constraint),
		strings.Join(sqlident.QuoteAll(b.Mapping.VariantColumns()), ", "),
		sqlident.Qualify(b.Union),
		strings.Join(sqlident.QuoteAll(b.Mapping.UnionColumns()), ", "))
}

// pgTriggerSQL creates one of the three propagation triggers. The update
// trigger only fires when a key column changes; payload updates never touch
// the union. Insert runs BEFORE the row so the union key exists when the
// deferred check fires; update and delete run AFTER the row, out of reach of
// the constraint's immediate cascade (see the file comment).
func pgTriggerSQL(b *Binding, hook string) string {
	var timing, event string
	switch hook {
	case HookInsert:
		timing, event = "BEFORE", "INSERT"
	case HookUpdate:
		timing, event = "AFTER", "UPDATE OF "+strings.Join(sqlident.QuoteAll(b.Mapping.VariantColumns()), ", ")
	case HookDelete:
		timing, event = "AFTER", "DELETE"
	}
	return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW EXECUTE FUNCTION %s(%s, %s, %s)",
		sqlident.Quote(TriggerName(b.Union, b.Variant, hook)),
		timing,
		event,
		sqlident.Qualify(b.Variant),
		PropagatorName,
		sqlident.QuoteString(sqlident.Qualify(b.Union)),
		sqlident.QuoteString(pgTextArray(b.Mapping.UnionColumns())),
		sqlident.QuoteString(pgTextArray(b.Mapping.VariantColumns())))
}

// pgTextArray renders a text[] literal with every element quoted, so column
// names survive the round trip through TG_ARGV.
func pgTextArray(elems []string) string {
	quoted := make([]string, len(elems))
	for i, e := range elems {
		e = strings.ReplaceAll(e, `\`, `\\`)
		e = strings.ReplaceAll(e, `"`, `\"`)
		quoted[i] = `"` + e + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
