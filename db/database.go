package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"whisperli/logger"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDB is the connection used by the SQLite session store.
var SQLiteDB *sql.DB

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	name       TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// OpenSQLite opens (creating if needed) the SQLite database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// ConnectSQLite opens the database at path into SQLiteDB.
func ConnectSQLite(path string) error {
	conn, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	SQLiteDB = conn
	logger.Info("connected to SQLite", logger.String("path", path))
	return nil
}

// InitDB creates the tables the SQLite store needs.
func InitDB(conn *sql.DB) error {
	if _, err := conn.Exec(createSessionsTable); err != nil {
		return fmt.Errorf("error creating sessions table: %w", err)
	}
	return nil
}

// CloseSQLite closes SQLiteDB if it is open.
func CloseSQLite() error {
	if SQLiteDB == nil {
		return nil
	}
	return SQLiteDB.Close()
}
