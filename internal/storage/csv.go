// internal/storage/csv.go
package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Ag1104/attendance-system/internal/models"
)

var csvHeader = []string{"staff_id", "date", "time", "status", "ip", "distance_meters"}

// CSVLedger stores entries in a single CSV file with a fixed header. Each
// append is encoded in full and handed to one write on an O_APPEND descriptor,
// then synced, so a crash can leave at most one partial trailing line.
// EnsureInitialized drops such a line.
type CSVLedger struct {
	path string
	mu   sync.Mutex
}

func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

func (l *CSVLedger) Path() string { return l.path }

func (l *CSVLedger) EnsureInitialized(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensure()
}

func (l *CSVLedger) ensure() error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger folder: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	keep := len(data)
	if keep > 0 && data[keep-1] != '\n' {
		keep = bytes.LastIndexByte(data, '\n') + 1
	}
	if keep == 0 {
		if err := f.Truncate(0); err != nil {
			return fmt.Errorf("reset ledger: %w", err)
		}
		if _, err := f.WriteAt(encodeRow(csvHeader), 0); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
		return f.Sync()
	}
	if keep < len(data) {
		if err := f.Truncate(int64(keep)); err != nil {
			return fmt.Errorf("drop partial ledger line: %w", err)
		}
		return f.Sync()
	}
	return nil
}

func (l *CSVLedger) ListForDate(ctx context.Context, date string) ([]string, error) {
	entries, err := l.Entries(ctx, date)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.StaffID)
	}
	return ids, nil
}

func (l *CSVLedger) Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	l.mu.Lock()
	all, err := l.readAll()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := []models.AttendanceEntry{}
	for _, e := range all {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *CSVLedger) FindConflicts(ctx context.Context, staffID, ip, date string) (Conflict, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.readAll()
	if err != nil {
		return NoConflict, err
	}
	return conflictIn(all, staffID, ip, date), nil
}

func (l *CSVLedger) Append(ctx context.Context, entry models.AttendanceEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.readAll()
	if err != nil {
		return err
	}
	if c := conflictIn(all, entry.StaffID, entry.IP, entry.Date); c != NoConflict {
		return c.Err()
	}

	row := encodeRow([]string{
		entry.StaffID,
		entry.Date,
		entry.Time,
		string(entry.Status),
		entry.IP,
		strconv.FormatFloat(RoundDistance(entry.DistanceMeters), 'f', 2, 64),
	})

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(row); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return f.Sync()
}

func (l *CSVLedger) Close() error { return nil }

func (l *CSVLedger) readAll() ([]models.AttendanceEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := l.ensure(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range csvHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("ledger header missing column %q", name)
		}
	}

	var out []models.AttendanceEntry
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if len(rec) < len(header) {
			continue
		}
		// A hand-edited distance must not block sign-ins, so it reads as 0.
		var dist float64
		if raw := strings.TrimSpace(rec[col["distance_meters"]]); raw != "" {
			if dist, err = strconv.ParseFloat(raw, 64); err != nil {
				line, _ := r.FieldPos(col["distance_meters"])
				log.Printf("ledger %s line %d: staff %s has unreadable distance %q", l.path, line, rec[col["staff_id"]], raw)
				dist = 0
			}
		}
		out = append(out, models.AttendanceEntry{
			StaffID:        rec[col["staff_id"]],
			Date:           rec[col["date"]],
			Time:           rec[col["time"]],
			Status:         normalizeStatus(rec[col["status"]]),
			IP:             rec[col["ip"]],
			DistanceMeters: dist,
		})
	}
	return out, nil
}

// normalizeStatus accepts the "ON TIME" spelling found in older ledgers.
func normalizeStatus(s string) models.AttendanceStatus {
	return models.AttendanceStatus(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_"))
}

// RoundDistance rounds meters to two decimal places.
func RoundDistance(m float64) float64 {
	return math.Round(m*100) / 100
}

func encodeRow(fields []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(fields)
	w.Flush()
	return buf.Bytes()
}
