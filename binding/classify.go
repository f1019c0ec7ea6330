package binding

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite "modernc.org/sqlite"

	"github.com/unionrel/unionrel/catalog"
)

// classify maps a driver error onto the binding error taxonomy. Errors that
// do not match a known class are returned unchanged for the caller to wrap.
func classify(dialect, op string, err error) error {
	if err == nil {
		return nil
	}
	switch dialect {
	case catalog.DialectPostgres:
		return classifyPostgres(op, err)
	case catalog.DialectSQLite:
		return classifySQLite(op, err)
	case catalog.DialectMySQL:
		return classifyMySQL(op, err)
	}
	return err
}

func classifyPostgres(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505", "23503", "23514": // unique, foreign key, check
		return &ConstraintViolationError{Op: op, Err: err}
	case "42710", "42P07", "42723": // duplicate object, table, function
		return &NamingConflictError{Object: objectFromMessage(pgErr.Message), Err: err}
	}
	return err
}

func classifySQLite(op string, err error) error {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		// Primary result code 19 is SQLITE_CONSTRAINT; extended codes keep
		// it in the low byte.
		if sqErr.Code()&0xff == 19 {
			return &ConstraintViolationError{Op: op, Err: err}
		}
	}
	if strings.Contains(err.Error(), "already exists") {
		return &NamingConflictError{Object: objectFromMessage(err.Error()), Err: err}
	}
	return err
}

func classifyMySQL(op string, err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case 1022, 1062, 1451, 1452: // duplicate key, FK violations
		return &ConstraintViolationError{Op: op, Err: err}
	case 1061, 1359, 1826: // duplicate index, trigger, FK name
		return &NamingConflictError{Object: objectFromMessage(myErr.Message), Err: err}
	}
	return err
}

// objectFromMessage pulls the first quoted identifier out of a driver
// message, falling back to the whole message.
func objectFromMessage(msg string) string {
	for _, quote := range []string{`"`, "`", "'"} {
		if i := strings.Index(msg, quote); i >= 0 {
			rest := msg[i+1:]
			if j := strings.Index(rest, quote); j > 0 {
				return rest[:j]
			}
		}
	}
	return msg
}
