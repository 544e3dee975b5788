package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for
// local development and single-user deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	external_key TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL DEFAULT '',
	raw_fields   TEXT NOT NULL DEFAULT '{}',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS score_records (
	project_id     TEXT PRIMARY KEY,
	raw_fields     TEXT NOT NULL,
	co_locate      TEXT NOT NULL DEFAULT '',
	thermal        REAL,
	redevelopment  REAL,
	overall        REAL,
	rating         TEXT NOT NULL,
	editor         TEXT NOT NULL,
	change_summary TEXT NOT NULL DEFAULT '',
	edited_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS score_history (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL,
	seq            INTEGER NOT NULL,
	raw_fields     TEXT NOT NULL,
	co_locate      TEXT NOT NULL DEFAULT '',
	thermal        REAL,
	redevelopment  REAL,
	overall        REAL,
	rating         TEXT NOT NULL,
	editor         TEXT NOT NULL,
	change_summary TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	UNIQUE (project_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_score_history_project ON score_history(project_id, seq);

CREATE TABLE IF NOT EXISTS interconnection_points (
	project_id  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	voltage_kv  REAL NOT NULL DEFAULT 0,
	capacity_mw REAL NOT NULL DEFAULT 0,
	notes       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (project_id, position)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProject(ctx context.Context, p model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	fieldsJSON, err := json.Marshal(p.RawFields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal raw fields")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, external_key, name, raw_fields, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (external_key) DO UPDATE SET name = ?, raw_fields = ?, updated_at = ?`,
		p.ID, p.ExternalKey, p.Name, string(fieldsJSON), now, now,
		p.Name, string(fieldsJSON), now,
	)
	return eris.Wrapf(err, "sqlite: upsert project %s", p.ExternalKey)
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	var fieldsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, external_key, name, raw_fields, created_at, updated_at FROM projects WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.ExternalKey, &p.Name, &fieldsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %s", id)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &p.RawFields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal raw fields")
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_key, name, raw_fields, created_at, updated_at
		 FROM projects ORDER BY name LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var fieldsJSON string
		if err := rows.Scan(&p.ID, &p.ExternalKey, &p.Name, &fieldsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &p.RawFields); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal raw fields")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) SaveOverride(ctx context.Context, rec model.ScoreRecord, points []model.InterconnectionPoint) error {
	if len(points) > model.MaxInterconnectionPoints {
		return eris.Wrapf(ErrTooManyPoints, "sqlite: %d points", len(points))
	}

	fieldsJSON, err := json.Marshal(rec.RawFields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal raw fields")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO score_records
			(project_id, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, edited_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id) DO UPDATE SET
			raw_fields = excluded.raw_fields, co_locate = excluded.co_locate,
			thermal = excluded.thermal, redevelopment = excluded.redevelopment,
			overall = excluded.overall, rating = excluded.rating,
			editor = excluded.editor, change_summary = excluded.change_summary,
			edited_at = excluded.edited_at`,
		rec.ProjectID, string(fieldsJSON), rec.CoLocate, nullable(rec.Thermal),
		nullable(rec.Redevelopment), nullable(rec.Overall), rec.Rating,
		rec.Editor, rec.ChangeSummary, rec.EditedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert score record %s", rec.ProjectID)
	}

	entry := rec.Snapshot()
	entry.ID = uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO score_history
			(id, project_id, seq, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, created_at)
		 VALUES (?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM score_history WHERE project_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ProjectID, entry.ProjectID, string(fieldsJSON), entry.CoLocate,
		nullable(entry.Thermal), nullable(entry.Redevelopment), nullable(entry.Overall),
		entry.Rating, entry.Editor, entry.ChangeSummary, entry.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: append history %s", rec.ProjectID)
	}

	if points != nil {
		if err := s.replacePointsTx(ctx, tx, rec.ProjectID, points); err != nil {
			return err
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save")
}

func (s *SQLiteStore) GetScoreRecord(ctx context.Context, projectID string) (*model.ScoreRecord, error) {
	var rec model.ScoreRecord
	var fieldsJSON string
	var thermal, redev, overall sql.NullFloat64

	err := s.db.QueryRowContext(ctx,
		`SELECT project_id, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, edited_at
		 FROM score_records WHERE project_id = ?`,
		projectID,
	).Scan(&rec.ProjectID, &fieldsJSON, &rec.CoLocate, &thermal, &redev, &overall,
		&rec.Rating, &rec.Editor, &rec.ChangeSummary, &rec.EditedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score record %s", projectID)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &rec.RawFields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal raw fields")
	}
	rec.Thermal = fromNull(thermal)
	rec.Redevelopment = fromNull(redev)
	rec.Overall = fromNull(overall)
	return &rec, nil
}

func (s *SQLiteStore) ListHistory(ctx context.Context, projectID string) ([]model.ScoreHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, seq, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, created_at
		 FROM score_history WHERE project_id = ? ORDER BY seq`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list history %s", projectID)
	}
	defer rows.Close()

	var entries []model.ScoreHistoryEntry
	for rows.Next() {
		var e model.ScoreHistoryEntry
		var fieldsJSON string
		var thermal, redev, overall sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Seq, &fieldsJSON, &e.CoLocate,
			&thermal, &redev, &overall, &e.Rating, &e.Editor, &e.ChangeSummary, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history entry")
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &e.RawFields); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal history fields")
		}
		e.Thermal = fromNull(thermal)
		e.Redevelopment = fromNull(redev)
		e.Overall = fromNull(overall)
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list history iterate")
}

func (s *SQLiteStore) ReplaceInterconnections(ctx context.Context, projectID string, points []model.InterconnectionPoint) error {
	if len(points) > model.MaxInterconnectionPoints {
		return eris.Wrapf(ErrTooManyPoints, "sqlite: %d points", len(points))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.replacePointsTx(ctx, tx, projectID, points); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace")
}

func (s *SQLiteStore) replacePointsTx(ctx context.Context, tx *sql.Tx, projectID string, points []model.InterconnectionPoint) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM interconnection_points WHERE project_id = ?`, projectID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: clear points %s", projectID)
	}
	for i, p := range points {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interconnection_points (project_id, position, name, voltage_kv, capacity_mw, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			projectID, i, p.Name, p.VoltageKV, p.CapacityMW, p.Notes,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert point %d for %s", i, projectID)
		}
	}
	return nil
}

func (s *SQLiteStore) ListInterconnections(ctx context.Context, projectID string) ([]model.InterconnectionPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id, position, name, voltage_kv, capacity_mw, notes
		 FROM interconnection_points WHERE project_id = ? ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list points %s", projectID)
	}
	defer rows.Close()

	var points []model.InterconnectionPoint
	for rows.Next() {
		var p model.InterconnectionPoint
		if err := rows.Scan(&p.ProjectID, &p.Position, &p.Name, &p.VoltageKV, &p.CapacityMW, &p.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: list points iterate")
}

// helpers

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
