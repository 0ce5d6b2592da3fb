package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/csg33k/tss-payroll/internal/domain"
)

var ErrNotFound = errors.New("artifact not found")

//go:embed migrations/*.sql
var migrations embed.FS

// Repository archives generated artifacts so they can be downloaded again.
type Repository struct {
	db *sql.DB
}

// New opens the SQLite database. Schema migrations are managed by dbmate
// (`dbmate --migrations-dir internal/adapters/sqlite/migrations up`); Migrate
// applies the same files for tests and first runs.
func New(dsn string) (*Repository, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open %s", dsn)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

// Migrate runs the up section of every embedded migration in name order.
// The statements are idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, upSection(string(raw))); err != nil {
			return errors.Wrapf(err, "migration %s", name)
		}
	}
	return nil
}

func upSection(src string) string {
	_, up, found := strings.Cut(src, "-- migrate:up")
	if !found {
		up = src
	}
	up, _, _ = strings.Cut(up, "-- migrate:down")
	return up
}

// ── Artifacts ────────────────────────────────────────────────────────────────

func (r *Repository) SaveArtifact(ctx context.Context, a *domain.Artifact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_artifacts (id, kind, filename, period, line_count, content, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		a.ID, string(a.Kind), a.Filename, a.Period, a.Lines, a.Content, a.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "save artifact %s", a.ID)
	}
	return nil
}

func (r *Repository) GetArtifact(ctx context.Context, id string) (*domain.Artifact, error) {
	a := &domain.Artifact{}
	var kind string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, filename, period, line_count, content, created_at
		FROM export_artifacts WHERE id=?`, id).Scan(
		&a.ID, &kind, &a.Filename, &a.Period, &a.Lines, &a.Content, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return nil, err
	}
	a.Kind = domain.ArtifactKind(kind)
	a.Size = len(a.Content)
	return a, nil
}

// ListArtifacts returns metadata only, newest first. Content is left nil.
func (r *Repository) ListArtifacts(ctx context.Context) ([]domain.Artifact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, filename, period, line_count, length(content), created_at
		FROM export_artifacts ORDER BY created_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		var kind string
		if err := rows.Scan(&a.ID, &kind, &a.Filename, &a.Period, &a.Lines, &a.Size, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.ArtifactKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteArtifact(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM export_artifacts WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "id %s", id)
	}
	return nil
}
