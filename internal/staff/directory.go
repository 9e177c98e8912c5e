// internal/staff/directory.go
package staff

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/Ag1104/attendance-system/internal/models"
)

// Directory maps a normalized staff id to a display name.
type Directory map[string]string

// NormalizeID trims and upper-cases a staff identifier.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Loader reads the staff list from a .csv, .xlsx or .xls file with the
// columns staff_id and staff_name. The file is read on every Load so edits
// are picked up without a restart.
type Loader struct {
	Path string
}

func NewLoader(path string) *Loader { return &Loader{Path: path} }

// Load returns the directory. A missing file yields an empty directory.
func (l *Loader) Load() (Directory, error) {
	recs, err := l.Records()
	if err != nil {
		return nil, err
	}
	dir := make(Directory, len(recs))
	for _, r := range recs {
		dir[r.StaffID] = r.StaffName
	}
	return dir, nil
}

// Records returns the staff list in file order.
func (l *Loader) Records() ([]models.StaffRecord, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.StaffRecord{}, nil
		}
		return nil, fmt.Errorf("read staff list: %w", err)
	}
	rows, err := readRows(data, l.Path)
	if err != nil {
		return nil, fmt.Errorf("parse staff list %s: %w", l.Path, err)
	}

	out := []models.StaffRecord{}
	if len(rows) == 0 {
		return out, nil
	}
	idIdx, nameIdx, err := headerIndexes(rows[0])
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		id := NormalizeID(cellValue(row, idIdx))
		if id == "" {
			continue
		}
		out = append(out, models.StaffRecord{StaffID: id, StaffName: cellValue(row, nameIdx)})
	}
	return out, nil
}

func headerIndexes(header []string) (int, int, error) {
	idIdx, nameIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "staff_id":
			idIdx = i
		case "staff_name":
			nameIdx = i
		}
	}
	if idIdx < 0 || nameIdx < 0 {
		return -1, -1, errors.New("staff list needs staff_id and staff_name columns")
	}
	return idIdx, nameIdx, nil
}

// readXLS turns a panic inside the xls decoder on a malformed file into an
// error. OpenReader returns a nil workbook when the file has no Workbook
// stream.
func readXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("malformed xls: %v", r)
		}
	}()
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook == nil || workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	return workbook.ReadAllCells(100000), nil
}

func readRows(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		return file.GetRows(sheetName)
	case ".xls":
		return readXLS(data)
	default:
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		var rows [][]string
		for {
			rec, err := r.Read()
			if err == io.EOF {
				return rows, nil
			}
			if err != nil {
				return nil, err
			}
			rows = append(rows, rec)
		}
	}
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
