package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres through the pgx database/sql driver and verifies
// the connection.
func Open(ctx context.Context, dsn string, development bool) (*sql.DB, error) {
	db, err := sql.Open("pgx", NormalizeDSN(dsn, development))
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// NormalizeDSN disables SSL for local development and forces the simple
// query protocol elsewhere, where a transaction pooler like pgbouncer may sit
// in front of the database and break server-side prepared statements.
func NormalizeDSN(dsn string, development bool) string {
	if development {
		if !strings.Contains(dsn, "sslmode") {
			dsn += separator(dsn, " ") + "sslmode=disable"
		}
		return dsn
	}
	if !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn += separator(dsn, " ") + "prefer_simple_protocol=true"
	}
	return dsn
}

// separator returns the joiner for another option: query parameters for URL
// DSNs, kv for keyword/value DSNs.
func separator(dsn, kv string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return "&"
		}
		return "?"
	}
	return kv
}

// PortFromDSN extracts the port of a URL DSN for startup logging.
func PortFromDSN(dsn string) string {
	parts := strings.Split(dsn, ":")
	for i, part := range parts {
		if strings.Contains(part, "@") && len(parts) > i+1 {
			return strings.Split(parts[i+1], "/")[0]
		}
	}
	return "not_found"
}
