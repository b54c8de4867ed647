// Package migrations embeds the goose schema migrations for the local SQLite
// store and the Postgres catalogue database.
package migrations

import "embed"

// SQLite holds migrations for the client-side key/value store. Apply with
// goose dialect "sqlite3" and directory "sqlite".
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres holds migrations for the catalogue schema. Apply with goose
// dialect "pgx" and directory "postgres".
//
//go:embed postgres/*.sql
var Postgres embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
