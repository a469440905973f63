package database

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// OpenSQLite opens the SQLite database at path and applies the embedded schema.
// Writers are serialized through a single connection and every transaction
// takes the write lock up front.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := MigrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite applies the embedded SQLite schema. Statements are idempotent.
func MigrateSQLite(db *sql.DB) error {
	schema, err := schemaFS.ReadFile("schema/sqlite.sql")
	if err != nil {
		return fmt.Errorf("read sqlite schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}
