package binding

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/unionrel/unionrel/catalog"
)

// Conn is the subset of *sql.Tx / *sql.DB the installers need. Bind always
// passes its enclosing transaction.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Installer backfills the union with the variant's existing keys and adds
// the cascading referential constraint from the variant's key to the
// union's key.
//
// The backfill runs before the constraint is added: adding a referential
// constraint validates existing rows immediately, even when the constraint
// is deferrable, so the variant's keys must already be present in the union.
type Installer struct {
	Dialect string
	Logger  *slog.Logger
}

// Install performs both steps against conn. The backfill is a single bulk
// copy and is not idempotent: a key already present in the union aborts the
// binding with a ConstraintViolationError.
func (in Installer) Install(ctx context.Context, conn Conn, b *Binding) error {
	switch in.Dialect {
	case catalog.DialectPostgres:
		return in.installExec(ctx, conn, pgBackfillSQL(b), pgConstraintSQL(b))
	case catalog.DialectMySQL:
		return in.installExec(ctx, conn, myBackfillSQL(b), myConstraintSQL(b))
	case catalog.DialectSQLite:
		return in.installSQLite(ctx, conn, b)
	default:
		return fmt.Errorf("unsupported dialect: %s", in.Dialect)
	}
}

func (in Installer) installExec(ctx context.Context, conn Conn, backfill, constraint string) error {
	if err := in.exec(ctx, conn, backfill); err != nil {
		return wrap("backfill", classify(in.Dialect, "backfill", err))
	}
	if err := in.exec(ctx, conn, constraint); err != nil {
		return wrap("add constraint", classify(in.Dialect, "constraint", err))
	}
	return nil
}

// installSQLite rebuilds the variant table to carry the constraint: SQLite
// cannot retrofit a table-level foreign key, so the stored definition is
// rewritten with the clause spliced in, rows are copied across, the tables
// are swapped, and the variant's indexes and triggers are replayed.
func (in Installer) installSQLite(ctx context.Context, conn Conn, b *Binding) error {
	if err := in.exec(ctx, conn, sqliteDeferSQL); err != nil {
		return wrap("defer foreign keys", err)
	}
	if err := in.exec(ctx, conn, sqliteBackfillSQL(b)); err != nil {
		return wrap("backfill", classify(in.Dialect, "backfill", err))
	}

	createSQL, err := sqliteTableSQL(ctx, conn, b.Variant)
	if err != nil {
		return wrap("read table definition", err)
	}
	deps, err := sqliteDependentObjects(ctx, conn, b.Variant)
	if err != nil {
		return wrap("read dependent objects", err)
	}
	rebuilt, err := sqliteRewriteCreate(createSQL, b.Variant.Name+sqliteRebuildSuffix, sqliteConstraintClause(b))
	if err != nil {
		return wrap("rewrite table definition", err)
	}

	if err := in.exec(ctx, conn, rebuilt); err != nil {
		return wrap("create rebuilt table", classify(in.Dialect, "constraint", err))
	}
	for _, stmt := range sqliteRebuildSQL(b.Variant) {
		if err := in.exec(ctx, conn, stmt); err != nil {
			return wrap("swap rebuilt table", classify(in.Dialect, "constraint", err))
		}
	}
	for _, dep := range deps {
		if err := in.exec(ctx, conn, dep.SQL); err != nil {
			return wrap(fmt.Sprintf("replay %s", dep.Name), classify(in.Dialect, "constraint", err))
		}
	}
	return nil
}

func (in Installer) exec(ctx context.Context, conn Conn, stmt string) error {
	if in.Logger != nil {
		in.Logger.DebugContext(ctx, "exec", "sql", stmt)
	}
	_, err := conn.ExecContext(ctx, stmt)
	return err
}

// wrap annotates an error with the step that produced it, unless the error
// already belongs to the binding taxonomy.
func wrap(step string, err error) error {
	switch err.(type) {
	case *ConstraintViolationError, *NamingConflictError:
		return err
	}
	return fmt.Errorf("%s: %w", step, err)
}
