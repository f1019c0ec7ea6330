package binding

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unionrel/unionrel/catalog"
	"github.com/unionrel/unionrel/ref"
)

// stubIntrospector canned-answers the catalog lookups so the orchestration
// tests only need the mock connection for the DDL statements themselves.
type stubIntrospector struct {
	keys        map[string][]catalog.KeyColumn
	triggers    map[string]bool
	constraints map[string]bool
}

func (s *stubIntrospector) PrimaryKey(_ context.Context, _ catalog.Querier, rel ref.Relation) ([]catalog.KeyColumn, error) {
	cols, ok := s.keys[rel.String()]
	if !ok {
		return nil, &catalog.MetadataError{Relation: rel, Reason: "relation does not exist"}
	}
	return cols, nil
}

func (s *stubIntrospector) TriggerExists(_ context.Context, _ catalog.Querier, _ ref.Relation, name string) (bool, error) {
	return s.triggers[name], nil
}

func (s *stubIntrospector) ConstraintExists(_ context.Context, _ catalog.Querier, _ ref.Relation, name string) (bool, error) {
	return s.constraints[name], nil
}

func newTestRegistrar(t *testing.T) (*Registrar, sqlmock.Sqlmock, *stubIntrospector) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r, err := NewRegistrar(db, catalog.DialectPostgres)
	if err != nil {
		t.Fatalf("NewRegistrar: %v", err)
	}
	stub := &stubIntrospector{
		keys: map[string][]catalog.KeyColumn{
			"animal": key(col("ident", "bigint")),
			"cat":    key(col("license", "bigint")),
		},
		triggers:    map[string]bool{},
		constraints: map[string]bool{},
	}
	r.introspector = stub
	return r, mock, stub
}

func TestBind_HappyPath(t *testing.T) {
	r, mock, _ := newTestRegistrar(t)
	b := testBinding(t, catalog.DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(pgBackfillSQL(b)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(pgConstraintSQL(b)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(pgPropagatorSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	for _, hook := range []string{HookInsert, HookUpdate, HookDelete} {
		mock.ExpectExec(pgTriggerSQL(b, hook)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	if err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat")); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}

	got := r.Registry().Bindings()
	if len(got) != 1 {
		t.Fatalf("expected one recorded binding, got %d", len(got))
	}
	if got[0].Constraint != "fk_cat_animal_union" {
		t.Errorf("unexpected recorded constraint: %s", got[0].Constraint)
	}
}

func TestBind_MissingRelation(t *testing.T) {
	r, mock, stub := newTestRegistrar(t)
	delete(stub.keys, "cat")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var merr *catalog.MetadataError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
	if merr.Relation.Name != "cat" {
		t.Errorf("unexpected relation: %s", merr.Relation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBind_ArityMismatch_NoSchemaChange(t *testing.T) {
	r, mock, stub := newTestRegistrar(t)
	stub.keys["cat"] = key(col("zone", "text"), col("license", "bigint"))

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var ierr *IncompatibilityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IncompatibilityError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("schema statements executed on a rejected binding: %v", err)
	}
	if len(r.Registry().Bindings()) != 0 {
		t.Error("rejected binding was recorded")
	}
}

func TestBind_BackfillCollision(t *testing.T) {
	r, mock, _ := newTestRegistrar(t)
	b := testBinding(t, catalog.DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(pgBackfillSQL(b)).WillReturnError(&pgconn.PgError{
		Code:    "23505",
		Message: `duplicate key value violates unique constraint "animal_pkey"`,
	})
	mock.ExpectRollback()

	err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var cerr *ConstraintViolationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConstraintViolationError, got %v", err)
	}
	if cerr.Op != "backfill" {
		t.Errorf("unexpected op: %s", cerr.Op)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
	if len(r.Registry().Bindings()) != 0 {
		t.Error("failed binding was recorded")
	}
}

func TestBind_ExistingTrigger_NamingConflict(t *testing.T) {
	r, mock, stub := newTestRegistrar(t)
	stub.triggers["tg_animal_cat_ins"] = true

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var nerr *NamingConflictError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NamingConflictError, got %v", err)
	}
	if nerr.Object != "tg_animal_cat_ins" {
		t.Errorf("unexpected conflicting object: %s", nerr.Object)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBind_ExistingConstraint_NamingConflict(t *testing.T) {
	r, mock, stub := newTestRegistrar(t)
	stub.constraints["fk_cat_animal_union"] = true

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var nerr *NamingConflictError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NamingConflictError, got %v", err)
	}
	if nerr.Object != "fk_cat_animal_union" {
		t.Errorf("unexpected conflicting object: %s", nerr.Object)
	}
}

func TestBind_CommitFailure_Classified(t *testing.T) {
	r, mock, _ := newTestRegistrar(t)
	b := testBinding(t, catalog.DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(pgBackfillSQL(b)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(pgConstraintSQL(b)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(pgPropagatorSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	for _, hook := range []string{HookInsert, HookUpdate, HookDelete} {
		mock.ExpectExec(pgTriggerSQL(b, hook)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{
		Code:    "23503",
		Message: `insert or update on table "cat" violates foreign key constraint "fk_cat_animal_union"`,
	})

	err := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var cerr *ConstraintViolationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConstraintViolationError at commit, got %v", err)
	}
	if len(r.Registry().Bindings()) != 0 {
		t.Error("uncommitted binding was recorded")
	}
}

func TestBind_MySQL_CapabilityGate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r, err := NewRegistrar(db, catalog.DialectMySQL)
	if err != nil {
		t.Fatalf("NewRegistrar: %v", err)
	}

	bindErr := r.Bind(context.Background(), ref.Rel("animal"), ref.Rel("cat"))
	var cerr *CapabilityError
	if !errors.As(bindErr, &cerr) {
		t.Fatalf("expected CapabilityError, got %v", bindErr)
	}
	if cerr.Missing != "deferred constraints" {
		t.Errorf("unexpected missing capability: %s", cerr.Missing)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("gated bind touched the database: %v", err)
	}
}
