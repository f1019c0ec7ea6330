// Package binding installs and maintains the composition of variant relations
// under a union relation, so that the union's key set is always the disjoint
// union of its bound variants' key sets.
//
// One binding is three synchronized parts: a deferred cascading foreign key
// from the variant's key to the union's key (the downward direction, handled
// natively by the engine), a one-time backfill of the union with the
// variant's existing keys, and three row triggers on the variant that
// mirror inserts, key updates, and deletes upward into the union. All
// coupling between variants passes through the union, so the installed
// surface grows linearly with the number of variants.
package binding

import (
	"github.com/unionrel/unionrel/catalog"
	"github.com/unionrel/unionrel/ref"
)

// Binding is the registered relationship of one variant relation to one
// union relation, together with the deterministic names of the schema
// objects that implement it. Bindings are immutable once installed; there is
// no unbind operation.
type Binding struct {
	Dialect    string       `json:"dialect"`
	Union      ref.Relation `json:"union"`
	Variant    ref.Relation `json:"variant"`
	Mapping    Mapping      `json:"mapping"`
	Constraint string       `json:"constraint"`
	Triggers   [3]string    `json:"triggers"` // insert, update, delete
}

// NewBinding validates key compatibility and derives the binding's object
// names. It performs no database work.
func NewBinding(dialect string, union, variant ref.Relation, unionPK, variantPK []catalog.KeyColumn) (*Binding, error) {
	mapping, err := NewMapping(dialect, union, variant, unionPK, variantPK)
	if err != nil {
		return nil, err
	}
	return &Binding{
		Dialect:    dialect,
		Union:      union,
		Variant:    variant,
		Mapping:    mapping,
		Constraint: ConstraintName(union, variant),
		Triggers:   TriggerNames(union, variant),
	}, nil
}
