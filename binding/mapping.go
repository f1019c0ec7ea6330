package binding

import (
	"fmt"
	"strings"

	"github.com/unionrel/unionrel/catalog"
	"github.com/unionrel/unionrel/ref"
)

// ColumnPair maps one union key column to its variant counterpart at the
// same key position. Pairing is strictly positional; names need not match.
type ColumnPair struct {
	UnionColumn   string `json:"union_column"`
	VariantColumn string `json:"variant_column"`
	Type          string `json:"type"` // normalized type shared by both sides
}

// Mapping is the stored column-mapping descriptor that parameterizes the
// propagation hooks and the referential constraint.
type Mapping struct {
	Pairs []ColumnPair `json:"pairs"`
}

// NewMapping pairs the union's key with the variant's key position by
// position. It fails with *IncompatibilityError when the arities differ or
// any position's types disagree after dialect normalization.
func NewMapping(dialect string, union, variant ref.Relation, unionPK, variantPK []catalog.KeyColumn) (Mapping, error) {
	if len(unionPK) != len(variantPK) {
		return Mapping{}, &IncompatibilityError{
			Union:   union,
			Variant: variant,
			Reason:  fmt.Sprintf("key arity %d != %d", len(variantPK), len(unionPK)),
		}
	}
	pairs := make([]ColumnPair, len(unionPK))
	for i := range unionPK {
		ut := normalizeType(dialect, unionPK[i].Type)
		vt := normalizeType(dialect, variantPK[i].Type)
		if ut != vt {
			return Mapping{}, &IncompatibilityError{
				Union:   union,
				Variant: variant,
				Reason: fmt.Sprintf("key position %d: type %s != %s",
					i+1, variantPK[i].Type, unionPK[i].Type),
			}
		}
		pairs[i] = ColumnPair{
			UnionColumn:   unionPK[i].Name,
			VariantColumn: variantPK[i].Name,
			Type:          ut,
		}
	}
	return Mapping{Pairs: pairs}, nil
}

// UnionColumns returns the union-side column names in key order.
func (m Mapping) UnionColumns() []string {
	cols := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		cols[i] = p.UnionColumn
	}
	return cols
}

// VariantColumns returns the variant-side column names in key order.
func (m Mapping) VariantColumns() []string {
	cols := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		cols[i] = p.VariantColumn
	}
	return cols
}

// normalizeType canonicalizes a type rendering for positional comparison.
func normalizeType(dialect, typ string) string {
	switch dialect {
	case catalog.DialectSQLite:
		return sqliteAffinity(typ)
	default:
		// PostgreSQL's format_type and MySQL's COLUMN_TYPE are already
		// canonical renderings; fold case and whitespace only.
		return strings.Join(strings.Fields(strings.ToLower(typ)), " ")
	}
}

// sqliteAffinity reduces a declared SQLite type to its column affinity,
// following the rules in the SQLite datatype documentation. SQLite compares
// key values by affinity, not by declared type.
func sqliteAffinity(typ string) string {
	t := strings.ToUpper(typ)
	switch {
	case strings.Contains(t, "INT"):
		return "INTEGER"
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return "TEXT"
	case t == "" || strings.Contains(t, "BLOB"):
		return "BLOB"
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return "REAL"
	default:
		return "NUMERIC"
	}
}
