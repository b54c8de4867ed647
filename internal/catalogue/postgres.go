package catalogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrijs2005/shiciyaji/internal/dbx"
)

const poemColumns = `id, title, author, dynasty, category, content, translation, annotation, tags, created_by, created_at`

const authorColumns = `id, name, dynasty, birth, death, description, avatar`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoem(row rowScanner, types *pgtype.Map) (*Poem, error) {
	var (
		p                                 Poem
		id                                int64
		translation, annotation, createdBy sql.NullString
		tags                              []string
	)
	err := row.Scan(&id, &p.Title, &p.Author, &p.Dynasty, &p.Category, &p.Content,
		&translation, &annotation, types.SQLScanner(&tags), &createdBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = strconv.FormatInt(id, 10)
	p.Translation = translation.String
	p.Annotation = annotation.String
	p.CreatedBy = createdBy.String
	p.Tags = tags
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func scanAuthor(row rowScanner) (*Author, error) {
	var (
		a                                   Author
		id                                  int64
		birth, death, description, avatar sql.NullString
	)
	if err := row.Scan(&id, &a.Name, &a.Dynasty, &birth, &death, &description, &avatar); err != nil {
		return nil, err
	}
	a.ID = strconv.FormatInt(id, 10)
	a.Birth = birth.String
	a.Death = death.String
	a.Description = description.String
	a.Avatar = avatar.String
	return &a, nil
}

// parseID maps a non-numeric id to ErrNotFound; no row can carry it.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return n, nil
}

func (r *PostgresRepository) queryPoems(ctx context.Context, query string, args ...any) ([]Poem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	types := pgtype.NewMap()
	poems := []Poem{}
	for rows.Next() {
		p, err := scanPoem(rows, types)
		if err != nil {
			return nil, fmt.Errorf("scan poem: %w", err)
		}
		poems = append(poems, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return poems, nil
}

func (r *PostgresRepository) ListPoems(ctx context.Context) ([]Poem, error) {
	return r.queryPoems(ctx, `SELECT `+poemColumns+` FROM poems ORDER BY created_at DESC, id DESC`)
}

func (r *PostgresRepository) GetPoem(ctx context.Context, id string) (*Poem, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+poemColumns+` FROM poems WHERE id = $1`, n)
	p, err := scanPoem(row, pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPoems matches keyword case-insensitively against title, author and
// content. LIKE wildcards in keyword are taken literally.
func (r *PostgresRepository) SearchPoems(ctx context.Context, keyword string) ([]Poem, error) {
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	return r.queryPoems(ctx, `SELECT `+poemColumns+` FROM poems
		WHERE title ILIKE $1 OR author ILIKE $1 OR content ILIKE $1
		ORDER BY created_at DESC, id DESC`, pattern)
}

func (r *PostgresRepository) PoemsByAuthor(ctx context.Context, author string) ([]Poem, error) {
	return r.queryPoems(ctx, `SELECT `+poemColumns+` FROM poems WHERE author = $1 ORDER BY created_at DESC, id DESC`, author)
}

func (r *PostgresRepository) PoemsByCategory(ctx context.Context, category string) ([]Poem, error) {
	return r.queryPoems(ctx, `SELECT `+poemColumns+` FROM poems WHERE category = $1 ORDER BY created_at DESC, id DESC`, category)
}

func (r *PostgresRepository) AddPoem(ctx context.Context, in NewPoem, createdBy string) (*Poem, error) {
	query := `INSERT INTO poems (title, author, dynasty, category, content, translation, annotation, tags, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text[], $9)
		RETURNING ` + poemColumns

	row := r.db.QueryRowContext(ctx, query,
		in.Title, in.Author, in.Dynasty, in.Category, in.Content,
		nullString(in.Translation), nullString(in.Annotation), textArray(in.Tags), nullString(createdBy))

	p, err := scanPoem(row, pgtype.NewMap())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// PoemOwner returns the id of the user who added the poem, or "" for
// seeded poems.
func (r *PostgresRepository) PoemOwner(ctx context.Context, id string) (string, error) {
	n, err := parseID(id)
	if err != nil {
		return "", err
	}

	var owner sql.NullString
	err = r.db.QueryRowContext(ctx, `SELECT created_by FROM poems WHERE id = $1`, n).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return owner.String, nil
}

func (r *PostgresRepository) queryAuthors(ctx context.Context, query string, args ...any) ([]Author, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	authors := []Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return authors, nil
}

func (r *PostgresRepository) ListAuthors(ctx context.Context) ([]Author, error) {
	return r.queryAuthors(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY name`)
}

func (r *PostgresRepository) GetAuthor(ctx context.Context, id string) (*Author, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	a, err := scanAuthor(r.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) AuthorsByDynasty(ctx context.Context, dynasty string) ([]Author, error) {
	return r.queryAuthors(ctx, `SELECT `+authorColumns+` FROM authors WHERE dynasty = $1 ORDER BY name`, dynasty)
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var (
			c    Category
			id   int64
			desc sql.NullString
		)
		if err := rows.Scan(&id, &c.Name, &desc); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		c.Description = desc.String
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return categories, nil
}

func (r *PostgresRepository) count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountPoems(ctx context.Context) (int64, error) {
	return r.count(ctx, "poems")
}

func (r *PostgresRepository) CountAuthors(ctx context.Context) (int64, error) {
	return r.count(ctx, "authors")
}

func (r *PostgresRepository) CountCategories(ctx context.Context) (int64, error) {
	return r.count(ctx, "categories")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var arrayElemEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// textArray renders tags as a Postgres text[] literal.
func textArray(tags []string) string {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = `"` + arrayElemEscaper.Replace(t) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

var _ Repository = (*PostgresRepository)(nil)
