package binding

import (
	"fmt"

	"github.com/unionrel/unionrel/catalog"
)

// Capabilities are the three storage-engine features the synchronization
// protocol is built on. An engine lacking any of them must provide an
// equivalent at the application or transaction-coordination layer before its
// dialect can host bindings.
type Capabilities struct {
	// DeferredConstraints: referential checks can be postponed to commit,
	// permitting out-of-order writes within one transaction.
	DeferredConstraints bool
	// CascadingForeignKeys: a parent key mutation propagates natively to
	// dependent rows (the downward direction).
	CascadingForeignKeys bool
	// BeforeRowTriggers: a hook can run before a dependent row's mutation
	// and mirror it into the parent (the upward direction).
	BeforeRowTriggers bool
}

// Complete reports whether every required capability is present.
func (c Capabilities) Complete() bool {
	return c.DeferredConstraints && c.CascadingForeignKeys && c.BeforeRowTriggers
}

// missing names the first absent capability, for error reporting.
func (c Capabilities) missing() string {
	switch {
	case !c.DeferredConstraints:
		return "deferred constraints"
	case !c.CascadingForeignKeys:
		return "cascading foreign keys"
	case !c.BeforeRowTriggers:
		return "before-row triggers"
	}
	return ""
}

// DialectCapabilities reports what each supported dialect provides natively.
func DialectCapabilities(dialect string) (Capabilities, error) {
	switch dialect {
	case catalog.DialectPostgres:
		return Capabilities{DeferredConstraints: true, CascadingForeignKeys: true, BeforeRowTriggers: true}, nil
	case catalog.DialectSQLite:
		return Capabilities{DeferredConstraints: true, CascadingForeignKeys: true, BeforeRowTriggers: true}, nil
	case catalog.DialectMySQL:
		// MySQL checks foreign keys immediately; there is no deferral.
		return Capabilities{CascadingForeignKeys: true, BeforeRowTriggers: true}, nil
	default:
		return Capabilities{}, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
