// internal/models/attendance.go
package models

import "time"

type AttendanceStatus string

const (
	StatusOnTime AttendanceStatus = "ON_TIME"
	StatusLate   AttendanceStatus = "LATE"
)

// DateLayout is the calendar date format stored in every ledger backend.
const DateLayout = "2006-01-02"

// TimeLayout is the 12-hour clock shown to staff and written to the ledger.
const TimeLayout = "03:04 PM"

// AttendanceEntry is one committed sign-in. (staff_id, date) and (ip, date)
// are each unique.
type AttendanceEntry struct {
	ID             string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StaffID        string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_attendance_staff_date" json:"staff_id"`
	Date           string           `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_attendance_staff_date;uniqueIndex:idx_attendance_ip_date" json:"date"`
	Time           string           `gorm:"type:varchar(16);not null" json:"time"`
	Status         AttendanceStatus `gorm:"type:varchar(20);not null" json:"status"`
	IP             string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_attendance_ip_date" json:"ip"`
	DistanceMeters float64          `gorm:"not null" json:"distance_meters"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (AttendanceEntry) TableName() string {
	return "attendance_entries"
}
