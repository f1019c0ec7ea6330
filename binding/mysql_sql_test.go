package binding

import (
	"strings"
	"testing"

	"github.com/unionrel/unionrel/catalog"
)

func TestMySQL_Constraint_NoDeferral(t *testing.T) {
	sql := myConstraintSQL(testBinding(t, catalog.DialectMySQL))

	for _, want := range []string{
		"ALTER TABLE `cat` ADD CONSTRAINT `fk_cat_animal_union`",
		"FOREIGN KEY (`license`) REFERENCES `animal` (`ident`)",
		"ON UPDATE CASCADE ON DELETE CASCADE",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "DEFERRABLE") {
		t.Errorf("MySQL has no deferred constraints:\n%s", sql)
	}
}

func TestMySQL_Backfill(t *testing.T) {
	sql := myBackfillSQL(testBinding(t, catalog.DialectMySQL))

	if sql != "INSERT INTO `animal` (`ident`) SELECT `license` FROM `cat`" {
		t.Errorf("unexpected backfill:\n%s", sql)
	}
}

func TestMySQL_Trigger_Insert(t *testing.T) {
	sql := myTriggerSQL(testBinding(t, catalog.DialectMySQL), HookInsert)

	want := "CREATE TRIGGER `tg_animal_cat_ins` BEFORE INSERT ON `cat` FOR EACH ROW INSERT INTO `animal` (`ident`) VALUES (NEW.`license`)"
	if sql != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, sql)
	}
}

func TestMySQL_Trigger_UpdateUnscoped(t *testing.T) {
	// MySQL triggers cannot name a column list; the WHERE clause carries the
	// key mapping instead.
	sql := myTriggerSQL(testBinding(t, catalog.DialectMySQL), HookUpdate)

	if strings.Contains(sql, "UPDATE OF") {
		t.Errorf("MySQL does not support UPDATE OF:\n%s", sql)
	}
	if !strings.Contains(sql, "UPDATE `animal` SET `ident` = NEW.`license` WHERE `ident` = OLD.`license`") {
		t.Errorf("unexpected update body:\n%s", sql)
	}
}

func TestMySQL_Trigger_Delete(t *testing.T) {
	sql := myTriggerSQL(testBinding(t, catalog.DialectMySQL), HookDelete)

	if !strings.Contains(sql, "DELETE FROM `animal` WHERE `ident` = OLD.`license`") {
		t.Errorf("unexpected delete body:\n%s", sql)
	}
}

func TestMySQL_Capabilities_Incomplete(t *testing.T) {
	caps, err := DialectCapabilities(catalog.DialectMySQL)
	if err != nil {
		t.Fatalf("DialectCapabilities: %v", err)
	}
	if caps.Complete() {
		t.Error("MySQL should not report complete capabilities")
	}
	if caps.missing() != "deferred constraints" {
		t.Errorf("unexpected missing capability: %s", caps.missing())
	}
}
