package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound: angeforderter Eintrag existiert nicht.
	ErrNotFound = errors.New("not found")

	// ErrCycle: der Entity-Graph enthält einen Zyklus.
	ErrCycle = errors.New("entity graph contains a cycle")
)

// Kind klassifiziert einen Persistenzfehler.
type Kind string

const (
	// KindConflict: eine Eindeutigkeitskollision bei geteilten Einträgen.
	// Wird im Coordinator durch Nachladen aufgelöst und erreicht Aufrufer nicht.
	KindConflict Kind = "conflict"
	// KindConstraintViolation: die Einreichung verletzt eine Integritätsregel des Stores.
	KindConstraintViolation Kind = "constraint_violation"
	// KindUnavailable: Store nicht erreichbar, Timeout oder Rollback durch den Server. Wiederholbar.
	KindUnavailable Kind = "unavailable"
	// KindInternal: alles andere; nicht wiederholbar.
	KindInternal Kind = "internal"
)

// PersistenceError ist der Fehler aus Commit und Store-Lesezugriffen.
type PersistenceError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable meldet, ob ein erneuter Versuch sinnvoll ist.
func (e *PersistenceError) Retryable() bool { return e.Kind == KindUnavailable }

// NormalizationError: eine explizite Referenz der Einreichung lässt sich nicht auflösen.
type NormalizationError struct {
	Path    string
	Message string
	Err     error
}

func (e *NormalizationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// IsKind prüft, ob err ein PersistenceError der Art k ist.
func IsKind(err error, k Kind) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Kind == k
}

// classify ordnet Treiberfehler einer Kind zu. Bereits klassifizierte Fehler bleiben unverändert.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Kind: kindOf(err), Op: op, Err: err}
}

func kindOf(err error) Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindUnavailable
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return KindConstraintViolation
	case errors.Is(err, driver.ErrBadConn):
		return KindUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return KindConstraintViolation
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsTransactionRollback(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return KindUnavailable
		}
		return KindInternal
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}

	// SQLite und database/sql melden sich hier nur über den Fehlertext
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return KindConstraintViolation
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "SQLITE_BUSY"),
		strings.Contains(msg, "sql: database is closed"):
		return KindUnavailable
	}
	return KindInternal
}
