package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
	_ "github.com/mattn/go-sqlite3"
)

// BlockWriter is implemented by stores that can write consecutive cells in one transaction
type BlockWriter interface {
	WriteBlock(addr uint16, data []byte) error
}

// StatsReporter is implemented by stores that keep a write history
type StatsReporter interface {
	GetStats() (Stats, error)
}

// Stats describes the write history of a SQLite image
type Stats struct {
	Cells     int        `json:"cells"`
	Writes    int64      `json:"writes"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// SQLiteStore keeps the non-volatile image in a SQLite table, one row per written cell.
// Cells without a row read as erased.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens or creates the image at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	store := &SQLiteStore{dbPath: dbPath}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize nvram store: %w", err)
	}

	return store, nil
}

// initialize sets up the database connection and creates tables
func (s *SQLiteStore) initialize() error {
	if s.dbPath == "" {
		s.dbPath = "./trx8-nvram.db"
	}

	// Create database directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := s.dbPath + "?_busy_timeout=10000&_journal_mode=WAL"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.createTables(); err != nil {
		db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	logging.Infof("storage", "nvram image: %s", s.dbPath)
	return nil
}

// createTables creates the database schema
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nvram (
		address INTEGER PRIMARY KEY CHECK (address >= 0 AND address < 65536),
		value INTEGER NOT NULL CHECK (value >= 0 AND value < 256),
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS nvram_stats (
		id INTEGER PRIMARY KEY,
		total_writes INTEGER NOT NULL DEFAULT 0,
		last_write DATETIME
	);

	INSERT OR IGNORE INTO nvram_stats (id, total_writes) VALUES (1, 0);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Read(addr uint16) (byte, error) {
	var value int
	err := s.db.QueryRow("SELECT value FROM nvram WHERE address = ?", addr).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cell %d: %w", addr, err)
	}
	return byte(value), nil
}

func (s *SQLiteStore) Write(addr uint16, value byte) error {
	return s.WriteBlock(addr, []byte{value})
}

// WriteBlock writes data starting at addr in a single transaction
func (s *SQLiteStore) WriteBlock(addr uint16, data []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO nvram (address, value) VALUES (?, ?)
		ON CONFLICT(address) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`
	for i, value := range data {
		if _, err := tx.Exec(query, int(addr)+i, value); err != nil {
			return fmt.Errorf("failed to write cell %d: %w", int(addr)+i, err)
		}
	}

	_, err = tx.Exec(`
		UPDATE nvram_stats SET
			total_writes = total_writes + ?,
			last_write = CURRENT_TIMESTAMP
		WHERE id = 1
	`, len(data))
	if err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}

	return tx.Commit()
}

// GetStats returns the image write statistics
func (s *SQLiteStore) GetStats() (Stats, error) {
	var stats Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM nvram").Scan(&stats.Cells); err != nil {
		return stats, fmt.Errorf("failed to count cells: %w", err)
	}

	var lastWrite sql.NullTime
	err := s.db.QueryRow("SELECT total_writes, last_write FROM nvram_stats WHERE id = 1").
		Scan(&stats.Writes, &lastWrite)
	if err != nil {
		return stats, fmt.Errorf("failed to read stats: %w", err)
	}
	if lastWrite.Valid {
		stats.LastWrite = &lastWrite.Time
	}
	return stats, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
