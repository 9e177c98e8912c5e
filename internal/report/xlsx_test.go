package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Ag1104/attendance-system/internal/models"
	"github.com/Ag1104/attendance-system/internal/staff"
)

func TestWriteAttendance(t *testing.T) {
	entries := []models.AttendanceEntry{
		{StaffID: "A1", Date: "2024-05-06", Time: "07:10 AM", Status: models.StatusOnTime, IP: "10.0.0.1", DistanceMeters: 4.5},
		{StaffID: "Z9", Date: "2024-05-06", Time: "09:02 AM", Status: models.StatusLate, IP: "10.0.0.2", DistanceMeters: 21},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAttendance(&buf, "2024-05-06", entries, staff.Directory{"A1": "Ada Obi"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Attendance 2024-05-06")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Staff ID", "Staff Name", "Date", "Time", "Status", "IP", "Distance (m)"}, rows[0])
	assert.Equal(t, []string{"A1", "Ada Obi", "2024-05-06", "07:10 AM", "ON_TIME", "10.0.0.1", "4.5"}, rows[1])
	assert.Equal(t, "Z9", rows[2][0])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "LATE", rows[2][4])
}

func TestWriteAttendance_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAttendance(&buf, "2024-05-06", nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Attendance 2024-05-06")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
