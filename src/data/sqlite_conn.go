package data

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// ConnectSQLite opens a single-file database. Writes are serialised through one connection,
// which also keeps transactions from tripping over SQLite's database-level lock.
func ConnectSQLite(path string) (*gorm.DB, error) {
	dsn := ensureParam(path, "_pragma", "busy_timeout(5000)")
	if !strings.Contains(dsn, "journal_mode") {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
