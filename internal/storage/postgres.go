// internal/storage/postgres.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Ag1104/attendance-system/internal/models"
)

const (
	pgErrUniqueViolation = "23505"
	deviceIndex          = "idx_attendance_ip_date"
)

// GormLedger stores entries in a relational table whose unique indexes on
// (staff_id, date) and (ip, date) hold across processes.
type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger { return &GormLedger{DB: db} }

// OpenPostgres connects with a few retries, since the database container
// often starts after the service.
func OpenPostgres(dsn string) (*GormLedger, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			break
		}
		log.Printf("postgres connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return NewGormLedger(db), nil
}

func (g *GormLedger) EnsureInitialized(ctx context.Context) error {
	if err := g.DB.WithContext(ctx).AutoMigrate(&models.AttendanceEntry{}); err != nil {
		return fmt.Errorf("failed migrate: %w", err)
	}
	return nil
}

func (g *GormLedger) ListForDate(ctx context.Context, date string) ([]string, error) {
	ids := []string{}
	err := g.DB.WithContext(ctx).Model(&models.AttendanceEntry{}).
		Where("date = ?", date).
		Order("created_at asc").
		Pluck("staff_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list signed in: %w", err)
	}
	return ids, nil
}

func (g *GormLedger) Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	rows := []models.AttendanceEntry{}
	if err := g.DB.WithContext(ctx).Where("date = ?", date).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return rows, nil
}

func (g *GormLedger) FindConflicts(ctx context.Context, staffID, ip, date string) (Conflict, error) {
	return findGormConflict(g.DB.WithContext(ctx), staffID, ip, date)
}

func findGormConflict(db *gorm.DB, staffID, ip, date string) (Conflict, error) {
	var n int64
	if err := db.Model(&models.AttendanceEntry{}).Where("staff_id = ? AND date = ?", staffID, date).Count(&n).Error; err != nil {
		return NoConflict, fmt.Errorf("check staff: %w", err)
	}
	if n > 0 {
		return StaffConflict, nil
	}
	if err := db.Model(&models.AttendanceEntry{}).Where("ip = ? AND date = ?", ip, date).Count(&n).Error; err != nil {
		return NoConflict, fmt.Errorf("check device: %w", err)
	}
	if n > 0 {
		return DeviceConflict, nil
	}
	return NoConflict, nil
}

func (g *GormLedger) Append(ctx context.Context, entry models.AttendanceEntry) error {
	entry.DistanceMeters = RoundDistance(entry.DistanceMeters)
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findGormConflict(tx, entry.StaffID, entry.IP, entry.Date)
		if err != nil {
			return err
		}
		if c != NoConflict {
			return c.Err()
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return uniqueViolation(err)
	}
	return nil
}

func (g *GormLedger) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// uniqueViolation maps a unique index failure raised by a concurrent writer
// onto the duplicate sentinels.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return err
	}
	if pgErr.ConstraintName == deviceIndex {
		return ErrDuplicateDevice
	}
	return ErrDuplicateStaff
}
