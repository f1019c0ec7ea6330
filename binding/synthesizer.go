package binding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unionrel/unionrel/catalog"
)

// Synthesizer installs the three reverse-propagation hooks on the variant:
// insert, update-of-key, and delete row triggers that mirror key changes
// upward into the union. Together with the constraint's
// downward cascades they complete the bidirectional synchronization; the
// union itself carries no hooks, so propagation depth is one hop in each
// direction.
type Synthesizer struct {
	Dialect string
	Logger  *slog.Logger
}

// Synthesize installs the hooks against conn. On PostgreSQL it first
// installs the shared generic propagation function; the triggers only carry
// the binding's column-mapping descriptor as arguments. The function is
// created with replace-if-exists semantics, the triggers are not — a name
// collision surfaces as a NamingConflictError.
func (s Synthesizer) Synthesize(ctx context.Context, conn Conn, b *Binding) error {
	var stmts []string
	switch s.Dialect {
	case catalog.DialectPostgres:
		stmts = append(stmts, pgPropagatorSQL)
		for _, hook := range []string{HookInsert, HookUpdate, HookDelete} {
			stmts = append(stmts, pgTriggerSQL(b, hook))
		}
	case catalog.DialectSQLite:
		for _, hook := range []string{HookInsert, HookUpdate, HookDelete} {
			stmts = append(stmts, sqliteTriggerSQL(b, hook))
		}
	case catalog.DialectMySQL:
		for _, hook := range []string{HookInsert, HookUpdate, HookDelete} {
			stmts = append(stmts, myTriggerSQL(b, hook))
		}
	default:
		return fmt.Errorf("unsupported dialect: %s", s.Dialect)
	}

	for _, stmt := range stmts {
		if s.Logger != nil {
			s.Logger.DebugContext(ctx, "exec", "sql", stmt)
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return wrap("install trigger", classify(s.Dialect, "trigger", err))
		}
	}
	return nil
}
