package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Ag1104/attendance-system/internal/models"
)

// BadgerLedger stores entries in an embedded badger KV store. Each entry is
// written together with two index keys inside one transaction:
//
//	staff/<date>/<staff_id> -> entry id
//	ip/<date>/<ip>          -> entry id
//	entry/<date>/<seq>      -> JSON entry
//
// Badger's conflict detection makes the index check and the write atomic.
type BadgerLedger struct {
	db  *badger.DB
	seq *badger.Sequence
}

func OpenBadger(path string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating badger directory: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	seq, err := db.GetSequence([]byte("seq/entries"), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening entry sequence: %w", err)
	}
	return &BadgerLedger{db: db, seq: seq}, nil
}

func (b *BadgerLedger) EnsureInitialized(ctx context.Context) error { return nil }

func staffKey(date, staffID string) []byte { return []byte("staff/" + date + "/" + staffID) }
func ipKey(date, ip string) []byte         { return []byte("ip/" + date + "/" + ip) }
func entryPrefix(date string) []byte       { return []byte("entry/" + date + "/") }

func entryKey(date string, seq uint64) []byte {
	return []byte(fmt.Sprintf("entry/%s/%020d", date, seq))
}

func (b *BadgerLedger) ListForDate(ctx context.Context, date string) ([]string, error) {
	entries, err := b.Entries(ctx, date)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.StaffID)
	}
	return ids, nil
}

func (b *BadgerLedger) Entries(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	out := []models.AttendanceEntry{}
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := entryPrefix(date)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e models.AttendanceEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return out, nil
}

func (b *BadgerLedger) FindConflicts(ctx context.Context, staffID, ip, date string) (Conflict, error) {
	var c Conflict
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = badgerConflict(txn, staffID, ip, date)
		return err
	})
	return c, err
}

func badgerConflict(txn *badger.Txn, staffID, ip, date string) (Conflict, error) {
	for _, k := range []struct {
		key []byte
		c   Conflict
	}{
		{staffKey(date, staffID), StaffConflict},
		{ipKey(date, ip), DeviceConflict},
	} {
		_, err := txn.Get(k.key)
		if err == nil {
			return k.c, nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return NoConflict, fmt.Errorf("check conflicts: %w", err)
		}
	}
	return NoConflict, nil
}

func (b *BadgerLedger) Append(ctx context.Context, entry models.AttendanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.DistanceMeters = RoundDistance(entry.DistanceMeters)
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		var n uint64
		n, err = b.seq.Next()
		if err != nil {
			return fmt.Errorf("next entry sequence: %w", err)
		}
		err = b.db.Update(func(txn *badger.Txn) error {
			c, err := badgerConflict(txn, entry.StaffID, entry.IP, entry.Date)
			if err != nil {
				return err
			}
			if c != NoConflict {
				return c.Err()
			}
			id := []byte(entry.ID)
			if err := txn.Set(staffKey(entry.Date, entry.StaffID), id); err != nil {
				return err
			}
			if err := txn.Set(ipKey(entry.Date, entry.IP), id); err != nil {
				return err
			}
			return txn.Set(entryKey(entry.Date, n), val)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil && !errors.Is(err, ErrDuplicateStaff) && !errors.Is(err, ErrDuplicateDevice) {
		return fmt.Errorf("append entry: %w", err)
	}
	return err
}

func (b *BadgerLedger) Close() error {
	if err := b.seq.Release(); err != nil {
		b.db.Close()
		return err
	}
	return b.db.Close()
}
