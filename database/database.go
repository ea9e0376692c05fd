package database

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultSQLitePath = "./storage/salon.db"
	dirPermissions    = 0755
)

//go:embed migrations_postgres.sql
var postgresMigrations string

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// DetectDriver picks the sql driver for dsn. Anything that does not look
// like a PostgreSQL URL or keyword DSN is treated as a SQLite file path.
func DetectDriver(dsn string) string {
	d := strings.TrimSpace(dsn)
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") || strings.Contains(d, "host=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// FormatDSN builds the connection string from DATABASE_URL, or from the
// discrete DB_* variables when it is unset. With neither present the
// local SQLite file is used.
func FormatDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		sslMode := os.Getenv("DB_SSLMODE")
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host,
			os.Getenv("DB_PORT"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			sslMode,
		)
	}
	return defaultSQLitePath
}

func New() (*sqlx.DB, error) {
	return Open(FormatDSN())
}

func Open(dsn string) (*sqlx.DB, error) {
	driver := DetectDriver(dsn)

	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), dirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer avoids "database is locked" under concurrent turns
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Migrate creates the salon tables when they do not exist yet.
func Migrate(db *sqlx.DB) error {
	schema := sqliteMigrations
	if db.DriverName() == DriverPostgres {
		schema = postgresMigrations
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
