package data

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"
)

// GetMySQLDSN returns the MySQL DSN configured via environment.
func GetMySQLDSN() string {
	return strings.TrimSpace(os.Getenv("MYSQL_DSN"))
}

// GetSQLitePath returns the SQLite database file configured via environment.
func GetSQLitePath() string {
	return strings.TrimSpace(os.Getenv("SQLITE_PATH"))
}

// Connect opens the configured database. MYSQL_DSN wins over SQLITE_PATH.
func Connect() (*gorm.DB, error) {
	if dsn := GetMySQLDSN(); dsn != "" {
		return ConnectMySQL(dsn)
	}
	if path := GetSQLitePath(); path != "" {
		return ConnectSQLite(path)
	}
	return nil, fmt.Errorf("neither MYSQL_DSN nor SQLITE_PATH is set")
}
