// Package sqlident provides identifier quoting for the SQL dialects the
// binding toolkit targets. Callers are expected to pass resolved identifiers;
// this package only makes them safe to splice into generated statements.
package sqlident

import (
	"strings"

	"github.com/unionrel/unionrel/ref"
)

// Quote double-quotes an identifier, escaping embedded double quotes.
// This is the PostgreSQL and SQLite form.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteMySQL backtick-quotes an identifier, escaping embedded backticks.
func QuoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Qualify renders a quoted, schema-qualified relation name in the
// double-quote form. Unqualified references render as a bare quoted name.
func Qualify(rel ref.Relation) string {
	if rel.Schema == "" {
		return Quote(rel.Name)
	}
	return Quote(rel.Schema) + "." + Quote(rel.Name)
}

// QualifyMySQL renders a quoted, schema-qualified relation name in the
// backtick form.
func QualifyMySQL(rel ref.Relation) string {
	if rel.Schema == "" {
		return QuoteMySQL(rel.Name)
	}
	return QuoteMySQL(rel.Schema) + "." + QuoteMySQL(rel.Name)
}

// QuoteAll quotes every name in the double-quote form.
func QuoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Quote(n)
	}
	return out
}

// QuoteString single-quotes a value for splicing into generated SQL where a
// bind parameter is not available (trigger arguments, pragma arguments).
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
