package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, KindConstraintViolation},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, KindConstraintViolation},
		{"serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, KindUnavailable},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, KindUnavailable},
		{"connection failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, KindUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: pgerrcode.AdminShutdown}, KindUnavailable},
		{"too many connections", &pgconn.PgError{Code: pgerrcode.TooManyConnections}, KindUnavailable},
		{"syntax error", &pgconn.PgError{Code: pgerrcode.SyntaxError}, KindInternal},
		{"wrapped duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), KindConstraintViolation},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), KindUnavailable},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: species.species_key, species.version (2067)"), KindConstraintViolation},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), KindUnavailable},
		{"closed pool", errors.New("sql: database is closed"), KindUnavailable},
		{"other", errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("op", tc.err)
			var pe *PersistenceError
			if assert.ErrorAs(t, err, &pe) {
				assert.Equal(t, tc.want, pe.Kind)
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	inner := &PersistenceError{Kind: KindConstraintViolation, Op: "write species", Err: gorm.ErrDuplicatedKey}
	err := classify("commit", fmt.Errorf("tx: %w", inner))
	assert.True(t, IsKind(err, KindConstraintViolation))
	assert.Nil(t, classify("commit", nil))
}

func TestNormalizationErrorUnwrap(t *testing.T) {
	err := &NormalizationError{Message: "species 9 does not exist", Err: ErrNotFound}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "species 9 does not exist", err.Error())

	err = &NormalizationError{Path: "level_id", Message: "level 3 does not exist"}
	assert.Equal(t, "level_id: level 3 does not exist", err.Error())
	assert.False(t, IsNotFound(err))
}
