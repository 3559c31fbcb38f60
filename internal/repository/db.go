package repository

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// NewDB creates a new MySQL database connection pool with the given DSN.
// The DSN must include parseTime=true so DATE and TIMESTAMP columns scan
// into time.Time values.
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
