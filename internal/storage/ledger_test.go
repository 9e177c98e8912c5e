package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ag1104/attendance-system/internal/config"
	"github.com/Ag1104/attendance-system/internal/models"
)

func newEntry(staffID, ip, date string) models.AttendanceEntry {
	return models.AttendanceEntry{
		ID:             uuid.NewString(),
		StaffID:        staffID,
		Date:           date,
		Time:           "07:15 AM",
		Status:         models.StatusOnTime,
		IP:             ip,
		DistanceMeters: 12.3456,
		CreatedAt:      time.Now(),
	}
}

// ledgers returns every backend that runs without an external server.
func ledgers(t *testing.T) map[string]Ledger {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := OpenSQLite(filepath.Join(dir, "attendance.db"))
	require.NoError(t, err)
	badgerLedger, err := OpenBadger("")
	require.NoError(t, err)

	// The gorm ledger runs here against sqlite so its queries, transaction
	// and migration are covered without a postgres server.
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(dir, "gorm.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	all := map[string]Ledger{
		"memory": NewMemoryLedger(),
		"csv":    NewCSVLedger(filepath.Join(dir, "records", "attendance.csv")),
		"sqlite": sqlite,
		"badger": badgerLedger,
		"gorm":   NewGormLedger(db),
	}
	for _, l := range all {
		l := l
		t.Cleanup(func() { l.Close() })
	}
	return all
}

func TestLedger_Conformance(t *testing.T) {
	ctx := context.Background()

	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, l.EnsureInitialized(ctx))
			require.NoError(t, l.EnsureInitialized(ctx), "EnsureInitialized must be idempotent")

			ids, err := l.ListForDate(ctx, "2024-05-01")
			require.NoError(t, err)
			assert.Empty(t, ids)

			require.NoError(t, l.Append(ctx, newEntry("A1", "10.0.0.1", "2024-05-01")))
			require.NoError(t, l.Append(ctx, newEntry("B2", "10.0.0.2", "2024-05-01")))
			require.NoError(t, l.Append(ctx, newEntry("A1", "10.0.0.1", "2024-05-02")))

			ids, err = l.ListForDate(ctx, "2024-05-01")
			require.NoError(t, err)
			assert.Equal(t, []string{"A1", "B2"}, ids)

			entries, err := l.Entries(ctx, "2024-05-02")
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "A1", entries[0].StaffID)
			assert.Equal(t, models.StatusOnTime, entries[0].Status)
			assert.Equal(t, 12.35, entries[0].DistanceMeters)

			c, err := l.FindConflicts(ctx, "A1", "10.9.9.9", "2024-05-01")
			require.NoError(t, err)
			assert.Equal(t, StaffConflict, c)

			c, err = l.FindConflicts(ctx, "C3", "10.0.0.2", "2024-05-01")
			require.NoError(t, err)
			assert.Equal(t, DeviceConflict, c)

			c, err = l.FindConflicts(ctx, "A1", "10.0.0.2", "2024-05-01")
			require.NoError(t, err)
			assert.Equal(t, StaffConflict, c, "staff match takes precedence")

			c, err = l.FindConflicts(ctx, "C3", "10.0.0.3", "2024-05-01")
			require.NoError(t, err)
			assert.Equal(t, NoConflict, c)

			err = l.Append(ctx, newEntry("A1", "10.0.0.9", "2024-05-01"))
			assert.ErrorIs(t, err, ErrDuplicateStaff)
			err = l.Append(ctx, newEntry("C3", "10.0.0.2", "2024-05-01"))
			assert.ErrorIs(t, err, ErrDuplicateDevice)

			ids, err = l.ListForDate(ctx, "2024-05-01")
			require.NoError(t, err)
			assert.Len(t, ids, 2, "rejected appends must not write")
		})
	}
}

func TestLedger_ConcurrentAppendsKeepOneEntryPerStaff(t *testing.T) {
	ctx := context.Background()

	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, l.EnsureInitialized(ctx))

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = l.Append(ctx, newEntry("A1", uuid.NewString(), "2024-06-01"))
				}(i)
			}
			wg.Wait()

			ids, err := l.ListForDate(ctx, "2024-06-01")
			require.NoError(t, err)
			assert.Equal(t, []string{"A1"}, ids)
		})
	}
}

func TestOpen_SelectsDriver(t *testing.T) {
	cfg := config.Default()
	cfg.LedgerPath = filepath.Join(t.TempDir(), "attendance.csv")

	l, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &CSVLedger{}, l)

	cfg.LedgerDriver = "memory"
	l, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLedger{}, l)

	cfg.LedgerDriver = "sqlite"
	cfg.LedgerPath = filepath.Join(t.TempDir(), "nested", "dir", "attendance.db")
	l, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteLedger{}, l)
	require.NoError(t, l.EnsureInitialized(context.Background()))
	require.NoError(t, l.Close())

	cfg.LedgerDriver = "mongo"
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestOpen_DefaultPathsCreateTheirDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	ctx := context.Background()
	for _, driver := range []string{"csv", "sqlite", "badger"} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.Default()
			cfg.LedgerDriver = driver
			cfg.LedgerPath = config.DefaultLedgerPath(driver)

			l, err := Open(cfg)
			require.NoError(t, err)
			defer l.Close()
			require.NoError(t, l.EnsureInitialized(ctx))
			require.NoError(t, l.Append(ctx, newEntry("A1", "10.0.0.1", "2024-05-01")))

			ids, err := l.ListForDate(ctx, "2024-05-01")
			require.NoError(t, err)
			assert.Equal(t, []string{"A1"}, ids)
		})
	}
}
