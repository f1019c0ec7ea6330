package binding

import (
	"fmt"

	"github.com/unionrel/unionrel/ref"
)

// IncompatibilityError reports union and variant primary keys that differ in
// arity or in positional type. Raised before any schema object is created.
type IncompatibilityError struct {
	Union   ref.Relation
	Variant ref.Relation
	Reason  string
}

func (e *IncompatibilityError) Error() string {
	return fmt.Sprintf("incompatible keys: %s cannot bind under %s: %s", e.Variant, e.Union, e.Reason)
}

// ConstraintViolationError reports a key that would break the union's
// uniqueness or the referential constraint: a backfill collision with a key
// already owned by another bound variant, or a deferred check failing at
// commit.
type ConstraintViolationError struct {
	Op  string // "backfill", "constraint", "commit", ...
	Err error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation during %s: %v", e.Op, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// NamingConflictError reports generated object names that already exist,
// which is how re-registration of an already-bound pair surfaces.
type NamingConflictError struct {
	Object string // the colliding trigger or constraint name
	Err    error  // underlying driver error, if the engine detected it
}

func (e *NamingConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("naming conflict: %s already exists", e.Object)
	}
	return fmt.Sprintf("naming conflict: %s: %v", e.Object, e.Err)
}

func (e *NamingConflictError) Unwrap() error { return e.Err }

// CapabilityError reports a dialect that lacks a capability the binding
// protocol requires. The caller must provide an equivalent at the
// application layer or pick another engine.
type CapabilityError struct {
	Dialect string
	Missing string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("dialect %s lacks required capability: %s", e.Dialect, e.Missing)
}
