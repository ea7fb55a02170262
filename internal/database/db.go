package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registriert den Treiber "pgx"
	_ "github.com/lib/pq"              // registriert den Treiber "postgres"
	_ "github.com/mattn/go-sqlite3"    // registriert den Treiber "sqlite3"
)

// Unterstützte Treiber
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// PoolConfig steuert den Verbindungspool von database/sql
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig liefert die Standardwerte für Postgres
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

type Database struct { // Datenbankverbindung
	Connection *sql.DB // Zeiger auf sql.DB-Instanz, die die Verbindung zur Datenbank enthält
	driver     string
}

// NewDatabase öffnet die Verbindung und prüft sie sofort per Ping
func NewDatabase(driver, dataSourceName string, pool PoolConfig) (*Database, error) {
	if !SupportedDriver(driver) {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dataSourceName == "" {
		return nil, fmt.Errorf("empty data source name")
	}

	db, err := sql.Open(driver, dataSourceName) // Öffnen der Datenbankverbindung
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite verträgt nur einen Schreiber; bei ":memory:" hätte jede Verbindung ihre eigene Datenbank
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(pool.MaxOpenConns)
		db.SetMaxIdleConns(pool.MaxIdleConns)
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{ // Rückgabe einer Database Instanz
		Connection: db,
		driver:     driver,
	}, nil
}

// SupportedDriver meldet, ob für den Treiber ein Schema existiert
func SupportedDriver(driver string) bool {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverPgx:
		return true
	}
	return false
}

// Driver liefert den Namen des verwendeten Treibers
func (db *Database) Driver() string {
	return db.driver
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Connection.PingContext(ctx)
}

// Methode zum schließen der Datanbankverbindung
func (db *Database) Close() error {
	return db.Connection.Close()
}
