package persistence

import (
	"database/sql"
	"fmt"
	"sync"

	"talentscout/pkg/logx"
)

// Process-wide archive handle.
//
//nolint:gochecknoglobals // Intentional singleton pattern for database access
var (
	globalDB   *sql.DB
	globalDBMu sync.RWMutex
	dbLogger   = logx.NewLogger("persistence")
)

// Initialize opens the archive database. Calling it again while open is a no-op.
func Initialize(dbPath string) error {
	globalDBMu.Lock()
	defer globalDBMu.Unlock()

	if globalDB != nil {
		return nil
	}
	db, err := InitializeDatabase(dbPath)
	if err != nil {
		return err
	}
	globalDB = db
	dbLogger.Info("📦 Report archive initialized: %s", dbPath)
	return nil
}

// IsInitialized returns true if the archive is open.
func IsInitialized() bool {
	globalDBMu.RLock()
	defer globalDBMu.RUnlock()
	return globalDB != nil
}

// Store returns a ReportStore on the archive, or nil when the archive is not open.
func Store() *ReportStore {
	globalDBMu.RLock()
	defer globalDBMu.RUnlock()
	if globalDB == nil {
		return nil
	}
	return NewReportStore(globalDB)
}

// Close closes the archive. Should be called during shutdown.
func Close() error {
	globalDBMu.Lock()
	defer globalDBMu.Unlock()

	if globalDB == nil {
		return nil
	}
	err := globalDB.Close()
	globalDB = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
