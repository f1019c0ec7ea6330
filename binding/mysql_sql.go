package binding

// mysql_sql.go - MySQL statement generation for one binding.
//
// MySQL checks foreign keys immediately; there is no deferral, so Bind
// refuses the dialect (see DialectCapabilities). The generators still exist
// for callers that provide a transaction-coordination equivalent and feed
// the statements to a compatible engine. MySQL triggers cannot be scoped to
// a column list, so the update hook fires on every row update; the mapped
// WHERE clause keeps non-key updates from touching other union rows.

import (
	"fmt"
	"strings"

	"github.com/unionrel/unionrel/sqlident"
)

func myQuoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = sqlident.QuoteMySQL(n)
	}
	return out
}

func myBackfillSQL(b *Binding) string {
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		sqlident.QualifyMySQL(b.Union),
		strings.Join(myQuoteAll(b.Mapping.UnionColumns()), ", "),
		strings.Join(myQuoteAll(b.Mapping.VariantColumns()), ", "),
		sqlident.QualifyMySQL(b.Variant))
}

func myConstraintSQL(b *Binding) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE CASCADE ON DELETE CASCADE",
		sqlident.QualifyMySQL(b.Variant),
		sqlident.QuoteMySQL(b.Constraint),
		strings.Join(myQuoteAll(b.Mapping.VariantColumns()), ", "),
		sqlident.QualifyMySQL(b.Union),
		strings.Join(myQuoteAll(b.Mapping.UnionColumns()), ", "))
}

func myTriggerSQL(b *Binding, hook string) string {
	union := sqlident.QualifyMySQL(b.Union)
	uCols := myQuoteAll(b.Mapping.UnionColumns())
	vCols := myQuoteAll(b.Mapping.VariantColumns())

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
		event = "UPDATE"
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

	return fmt.Sprintf("CREATE TRIGGER %s BEFORE %s ON %s FOR EACH ROW %s",
		sqlident.QuoteMySQL(TriggerName(b.Union, b.Variant, hook)),
		event,
		sqlident.QualifyMySQL(b.Variant),
		body)
}
