// internal/report/xlsx.go
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Ag1104/attendance-system/internal/models"
	"github.com/Ag1104/attendance-system/internal/staff"
)

var columns = []any{"Staff ID", "Staff Name", "Date", "Time", "Status", "IP", "Distance (m)"}

// WriteAttendance renders the entries for one date as an .xlsx workbook.
// Names come from dir; staff missing from it get an empty name.
func WriteAttendance(w io.Writer, date string, entries []models.AttendanceEntry, dir staff.Directory) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Attendance " + date
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.StaffID, dir[e.StaffID], e.Date, e.Time, string(e.Status), e.IP, e.DistanceMeters}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "G", 16); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
