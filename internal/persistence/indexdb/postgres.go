package indexdb

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgres connects to dsn, e.g. postgres://user:pw@host/db?sslmode=disable,
// and creates the tables if needed.
func OpenPostgres(dsn string) (*Index, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	return open(db, postgresDialect)
}
