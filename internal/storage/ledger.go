// internal/storage/ledger.go
package storage

import (
	"context"
	"errors"

	"github.com/Ag1104/attendance-system/internal/models"
)

var (
	// ErrDuplicateStaff is returned by Append when the staff id already has an
	// entry for the date.
	ErrDuplicateStaff = errors.New("staff already signed in for date")
	// ErrDuplicateDevice is returned by Append when the address already has an
	// entry for the date.
	ErrDuplicateDevice = errors.New("device already signed in for date")
)

type Conflict int

const (
	NoConflict Conflict = iota
	StaffConflict
	DeviceConflict
)

func (c Conflict) Err() error {
	switch c {
	case StaffConflict:
		return ErrDuplicateStaff
	case DeviceConflict:
		return ErrDuplicateDevice
	}
	return nil
}

// Ledger is the append-only attendance store.
type Ledger interface {
	// EnsureInitialized creates the backing store if needed. It is idempotent.
	EnsureInitialized(ctx context.Context) error
	// ListForDate returns the staff ids with an entry on date, in ledger order.
	ListForDate(ctx context.Context, date string) ([]string, error)
	// Entries returns every entry recorded on date, in ledger order.
	Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error)
	// FindConflicts reports whether staffID or ip already has an entry on date.
	// A staff match takes precedence over a device match.
	FindConflicts(ctx context.Context, staffID, ip, date string) (Conflict, error)
	// Append writes one entry. It returns ErrDuplicateStaff or
	// ErrDuplicateDevice instead of writing a second entry for the same key.
	Append(ctx context.Context, entry models.AttendanceEntry) error
	Close() error
}

// conflictIn scans entries the way every file or memory backed ledger does.
func conflictIn(entries []models.AttendanceEntry, staffID, ip, date string) Conflict {
	device := false
	for _, e := range entries {
		if e.Date != date {
			continue
		}
		if e.StaffID == staffID {
			return StaffConflict
		}
		if e.IP == ip {
			device = true
		}
	}
	if device {
		return DeviceConflict
	}
	return NoConflict
}
