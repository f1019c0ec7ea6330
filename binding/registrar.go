package binding

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/unionrel/unionrel/catalog"
	"github.com/unionrel/unionrel/logging"
	"github.com/unionrel/unionrel/ref"
)

// Registrar is the public entry point: it binds variant relations under
// union relations. Each Bind call runs in one enclosing transaction, so a
// failure at any step leaves no schema object behind.
//
// Concurrent Bind calls are not mutually isolated; schema-definition
// operations must be serialized by the caller.
type Registrar struct {
	// Logger, when set, receives every executed statement at debug level.
	Logger *slog.Logger

	db           *sql.DB
	dialect      string
	introspector catalog.Introspector
	registry     *Registry
}

// NewRegistrar builds a registrar for db speaking the given dialect
// (catalog.DialectPostgres, catalog.DialectSQLite, or catalog.DialectMySQL).
func NewRegistrar(db *sql.DB, dialect string) (*Registrar, error) {
	introspector, err := catalog.ForDialect(dialect)
	if err != nil {
		return nil, err
	}
	return &Registrar{
		db:           db,
		dialect:      dialect,
		introspector: introspector,
		registry:     NewRegistry(),
	}, nil
}

// Registry returns the record of bindings created through this registrar.
func (r *Registrar) Registry() *Registry {
	return r.registry
}

// Bind registers variant under union: it verifies positional key
// compatibility, backfills the union with the variant's existing keys, adds
// the deferred cascading foreign key, and installs the three upward
// propagation triggers — all within one transaction.
//
// Failure modes: *catalog.MetadataError (relation missing or keyless),
// *IncompatibilityError (arity or positional type mismatch),
// *ConstraintViolationError (backfill key collision or deferred check
// failing at commit), *NamingConflictError (the pair is already bound),
// *CapabilityError (dialect cannot host the protocol).
func (r *Registrar) Bind(ctx context.Context, union, variant ref.Relation) error {
	caps, err := DialectCapabilities(r.dialect)
	if err != nil {
		return err
	}
	if !caps.Complete() {
		return &CapabilityError{Dialect: r.dialect, Missing: caps.missing()}
	}

	logger := r.Logger
	if logger != nil {
		logger = logging.ForBinding(logger, r.dialect, union, variant)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin binding transaction: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	b, err := r.prepare(ctx, tx, union, variant)
	if err != nil {
		return err
	}

	installer := Installer{Dialect: r.dialect, Logger: logger}
	if err := installer.Install(ctx, tx, b); err != nil {
		return err
	}
	synthesizer := Synthesizer{Dialect: r.dialect, Logger: logger}
	if err := synthesizer.Synthesize(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit binding", classify(r.dialect, "commit", err))
	}

	r.registry.record(*b)
	return nil
}

// prepare introspects both keys, checks compatibility, and rejects object
// names that already exist before any schema mutation happens.
func (r *Registrar) prepare(ctx context.Context, q catalog.Querier, union, variant ref.Relation) (*Binding, error) {
	unionPK, err := r.introspector.PrimaryKey(ctx, q, union)
	if err != nil {
		return nil, err
	}
	variantPK, err := r.introspector.PrimaryKey(ctx, q, variant)
	if err != nil {
		return nil, err
	}

	b, err := NewBinding(r.dialect, union, variant, unionPK, variantPK)
	if err != nil {
		return nil, err
	}

	for _, name := range b.Triggers {
		exists, err := r.introspector.TriggerExists(ctx, q, variant, name)
		if err != nil {
			return nil, fmt.Errorf("check trigger %s: %w", name, err)
		}
		if exists {
			return nil, &NamingConflictError{Object: name}
		}
	}
	exists, err := r.introspector.ConstraintExists(ctx, q, variant, b.Constraint)
	if err != nil {
		return nil, fmt.Errorf("check constraint %s: %w", b.Constraint, err)
	}
	if exists {
		return nil, &NamingConflictError{Object: b.Constraint}
	}
	return b, nil
}
