package binding

import "github.com/unionrel/unionrel/ref"

// Hook operations, also used as trigger-name suffixes.
const (
	HookInsert = "ins"
	HookUpdate = "upd"
	HookDelete = "del"
)

// PropagatorName is the generic propagation function installed once per
// PostgreSQL database and shared by every binding's triggers.
const PropagatorName = "unionrel_propagate"

// ConstraintName derives the deterministic name of a binding's referential
// constraint from the pair of relation names.
func ConstraintName(union, variant ref.Relation) string {
	return "fk_" + variant.Name + "_" + union.Name + "_union"
}

// TriggerName derives the deterministic name of one of a binding's three
// propagation triggers. Re-registering a bound pair collides on these names.
func TriggerName(union, variant ref.Relation, hook string) string {
	return "tg_" + union.Name + "_" + variant.Name + "_" + hook
}

// TriggerNames returns the insert, update, and delete trigger names in order.
func TriggerNames(union, variant ref.Relation) [3]string {
	return [3]string{
		TriggerName(union, variant, HookInsert),
		TriggerName(union, variant, HookUpdate),
		TriggerName(union, variant, HookDelete),
	}
}
