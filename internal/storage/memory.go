package storage

import (
	"context"
	"sync"

	"github.com/Ag1104/attendance-system/internal/models"
)

// MemoryLedger keeps entries in process memory. Used by tests and by the
// "memory" driver for demos.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []models.AttendanceEntry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) EnsureInitialized(ctx context.Context) error { return nil }

func (m *MemoryLedger) ListForDate(ctx context.Context, date string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := []string{}
	for _, e := range m.entries {
		if e.Date == date {
			ids = append(ids, e.StaffID)
		}
	}
	return ids, nil
}

func (m *MemoryLedger) Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.AttendanceEntry{}
	for _, e := range m.entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryLedger) FindConflicts(ctx context.Context, staffID, ip, date string) (Conflict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return conflictIn(m.entries, staffID, ip, date), nil
}

func (m *MemoryLedger) Append(ctx context.Context, entry models.AttendanceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := conflictIn(m.entries, entry.StaffID, entry.IP, entry.Date); c != NoConflict {
		return c.Err()
	}
	entry.DistanceMeters = RoundDistance(entry.DistanceMeters)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryLedger) Close() error { return nil }
