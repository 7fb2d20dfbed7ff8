package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/core/sqlite"
	"github.com/jnthodge/visual-bible/internal/project"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	output_path  TEXT NOT NULL,
	image_path   TEXT NOT NULL,
	image_digest TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	seq          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_target ON projects(name, output_path);

CREATE TABLE IF NOT EXISTS project_references (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	reference  TEXT NOT NULL,
	PRIMARY KEY (project_id, position)
);

CREATE TABLE IF NOT EXISTS project_highlights (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	book       INTEGER NOT NULL,
	chapter    INTEGER NOT NULL,
	verse_num  INTEGER NOT NULL,
	verse      TEXT NOT NULL,
	text       TEXT NOT NULL,
	x          INTEGER NOT NULL,
	y          INTEGER NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	PRIMARY KEY (project_id, position)
);
`

// SQLiteStore keeps records in three tables: projects,
// project_references and project_highlights.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ project.Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec *project.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? OR (name = ? AND output_path = ?)`,
		rec.ID, rec.Name, rec.OutputPath); err != nil {
		return errors.Wrap(err, "supersede")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, output_path, image_path, image_digest, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM projects))`,
		rec.ID, rec.Name, rec.OutputPath, rec.ImagePath, rec.ImageDigest,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return errors.Wrap(err, "insert project")
	}

	refStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO project_references (project_id, position, reference) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare references")
	}
	defer refStmt.Close()
	for i, ref := range rec.References {
		if _, err := refStmt.ExecContext(ctx, rec.ID, i, ref); err != nil {
			return errors.Wrap(err, "insert reference")
		}
	}

	hlStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO project_highlights
		 (project_id, position, book, chapter, verse_num, verse, text, x, y, width, height)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare highlights")
	}
	defer hlStmt.Close()
	for i, h := range rec.Highlights {
		if _, err := hlStmt.ExecContext(ctx, rec.ID, i,
			h.ID.Book, h.ID.Chapter, h.ID.Verse, h.Verse, h.Text,
			h.X, h.Y, h.Width, h.Height); err != nil {
			return errors.Wrap(err, "insert highlight")
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]*project.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, output_path, image_path, image_digest, created_at FROM projects ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	records := []*project.Record{}
	for rows.Next() {
		rec, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list projects")
	}

	// Children are loaded after the cursor is closed; the pool has a
	// single connection.
	for _, rec := range records {
		if err := s.loadChildren(ctx, rec); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*project.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, output_path, image_path, image_digest, created_at FROM projects WHERE id = ?`, id)
	rec, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("project", id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("project", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*project.Record, error) {
	var rec project.Record
	var created string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.OutputPath, &rec.ImagePath, &rec.ImageDigest, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("project %s: bad created_at %q: %w", rec.ID, created, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, rec *project.Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reference FROM project_references WHERE project_id = ? ORDER BY position`, rec.ID)
	if err != nil {
		return errors.Wrap(err, "load references")
	}
	rec.References = []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan reference")
		}
		rec.References = append(rec.References, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "load references")
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT book, chapter, verse_num, verse, text, x, y, width, height
		 FROM project_highlights WHERE project_id = ? ORDER BY position`, rec.ID)
	if err != nil {
		return errors.Wrap(err, "load highlights")
	}
	defer rows.Close()
	rec.Highlights = []scripture.HighlightRegion{}
	for rows.Next() {
		var h scripture.HighlightRegion
		if err := rows.Scan(&h.ID.Book, &h.ID.Chapter, &h.ID.Verse, &h.Verse, &h.Text,
			&h.X, &h.Y, &h.Width, &h.Height); err != nil {
			return errors.Wrap(err, "scan highlight")
		}
		rec.Highlights = append(rec.Highlights, h)
	}
	return rows.Err()
}
