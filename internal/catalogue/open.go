package catalogue

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/shiciyaji/internal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	sqlOpen = sql.Open

	gooseUp = func(ctx context.Context, db *sql.DB) error {
		goose.SetBaseFS(migrations.Postgres)
		if err := goose.SetDialect("pgx"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		return goose.UpContext(ctx, db, migrations.PostgresDir)
	}
)

// OpenPostgres connects to the catalogue database and brings its schema up
// to date.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}

	if err := gooseUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalogue db: %w", err)
	}
	return db, nil
}
