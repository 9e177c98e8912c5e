package storage

import (
	"fmt"
	"log"

	"github.com/Ag1104/attendance-system/internal/config"
)

// Open builds the ledger selected by cfg.LedgerDriver. The caller is
// responsible for EnsureInitialized and Close.
func Open(cfg config.Config) (Ledger, error) {
	switch cfg.LedgerDriver {
	case "csv", "":
		log.Printf("ledger: csv file %s", cfg.LedgerPath)
		return NewCSVLedger(cfg.LedgerPath), nil
	case "postgres":
		log.Printf("ledger: postgres %s:%s/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Name)
		l, err := OpenPostgres(cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		return l, nil
	case "sqlite":
		log.Printf("ledger: sqlite %s", cfg.LedgerPath)
		l, err := OpenSQLite(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "badger":
		log.Printf("ledger: badger %s", cfg.LedgerPath)
		l, err := OpenBadger(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "memory":
		log.Printf("ledger: in-memory, entries are lost on exit")
		return NewMemoryLedger(), nil
	}
	return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
}
