package binding

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/unionrel/unionrel/catalog"
)

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func TestRegistry_BindingsReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.record(*testBinding(t, catalog.DialectPostgres))

	got := reg.Bindings()
	if len(got) != 1 {
		t.Fatalf("expected one binding, got %d", len(got))
	}
	got[0].Constraint = "mutated"
	if reg.Bindings()[0].Constraint != "fk_cat_animal_union" {
		t.Error("Bindings exposed internal state")
	}
}

func TestRegistry_Validate_AllPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	reg := NewRegistry()
	reg.record(*testBinding(t, catalog.DialectPostgres))

	// One constraint lookup, then one lookup per trigger.
	for i := 0; i < 4; i++ {
		mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRow(true))
	}

	if err := reg.Validate(context.Background(), db); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegistry_Validate_MissingConstraint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	reg := NewRegistry()
	reg.record(*testBinding(t, catalog.DialectPostgres))

	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRow(false))

	err = reg.Validate(context.Background(), db)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "fk_cat_animal_union") {
		t.Errorf("error does not name the missing constraint: %v", err)
	}
}

func TestRegistry_Validate_MissingTrigger(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	reg := NewRegistry()
	reg.record(*testBinding(t, catalog.DialectPostgres))

	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRow(true))  // constraint
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRow(true))  // insert trigger
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(existsRow(false)) // update trigger

	err = reg.Validate(context.Background(), db)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "tg_animal_cat_upd") {
		t.Errorf("error does not name the missing trigger: %v", err)
	}
}

func TestRegistry_Validate_Empty(t *testing.T) {
	if err := NewRegistry().Validate(context.Background(), nil); err != nil {
		t.Fatalf("empty registry should validate: %v", err)
	}
}
