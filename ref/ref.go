// Package ref provides shared relation references used across the unionrel packages.
// It exists to avoid circular imports between the catalog and binding packages.
package ref

import "strings"

// Relation is a reference to a relation (table) in the schema. The schema
// qualifier is optional; an empty Schema resolves to the engine's default
// namespace ("public" on PostgreSQL, "main" on SQLite).
type Relation struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

// Rel returns an unqualified relation reference.
func Rel(name string) Relation {
	return Relation{Name: name}
}

// InSchema returns a schema-qualified relation reference.
func InSchema(schema, name string) Relation {
	return Relation{Schema: schema, Name: name}
}

// Parse splits a dotted identifier into a Relation. "public.animal" parses
// to {Schema: "public", Name: "animal"}; "animal" is left unqualified.
// Only the first dot is significant.
func Parse(s string) Relation {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return Relation{Schema: s[:i], Name: s[i+1:]}
	}
	return Relation{Name: s}
}

// String renders the dotted, unquoted form of the reference.
func (r Relation) String() string {
	if r.Schema == "" {
		return r.Name
	}
	return r.Schema + "." + r.Name
}
