package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	device := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: deviceIndex})
	assert.ErrorIs(t, uniqueViolation(device), ErrDuplicateDevice)

	staff := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "idx_attendance_staff_date"}
	assert.ErrorIs(t, uniqueViolation(staff), ErrDuplicateStaff)

	notNull := &pgconn.PgError{Code: "23502"}
	assert.Same(t, notNull, uniqueViolation(notNull))

	other := errors.New("connection reset")
	assert.Equal(t, other, uniqueViolation(other))
}

func TestConflictErr(t *testing.T) {
	assert.NoError(t, NoConflict.Err())
	assert.ErrorIs(t, StaffConflict.Err(), ErrDuplicateStaff)
	assert.ErrorIs(t, DeviceConflict.Err(), ErrDuplicateDevice)
}
