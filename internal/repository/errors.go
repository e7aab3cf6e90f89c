// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking engine and the handlers to distinguish between failure scenarios
// without inspecting driver errors themselves.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrSessionNotFound is returned when the referenced session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrDuplicate is returned when an insert violates a unique key, for
// example a second booking for the same (user, session).
var ErrDuplicate = errors.New("duplicate entry")

// ErrTxConflict is returned when the database aborted the statement because
// of concurrent activity (deadlock or lock wait timeout).  The whole
// transaction has to be retried.
var ErrTxConflict = errors.New("transaction conflict")

// MySQL server error numbers classified by classify.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify wraps err with ErrDuplicate or ErrTxConflict when the driver
// reports one of the corresponding MySQL errors.  Other errors are wrapped
// with op for context.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%s: %w: %v", op, ErrDuplicate, err)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return fmt.Errorf("%s: %w: %v", op, ErrTxConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
