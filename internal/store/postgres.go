package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/db"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., the spreadsheet importer).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	external_key TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL DEFAULT '',
	raw_fields   JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS score_records (
	project_id     TEXT PRIMARY KEY,
	raw_fields     JSONB NOT NULL,
	co_locate      TEXT NOT NULL DEFAULT '',
	thermal        DOUBLE PRECISION,
	redevelopment  DOUBLE PRECISION,
	overall        DOUBLE PRECISION,
	rating         TEXT NOT NULL,
	editor         TEXT NOT NULL,
	change_summary TEXT NOT NULL DEFAULT '',
	edited_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS score_history (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL,
	seq            BIGINT NOT NULL,
	raw_fields     JSONB NOT NULL,
	co_locate      TEXT NOT NULL DEFAULT '',
	thermal        DOUBLE PRECISION,
	redevelopment  DOUBLE PRECISION,
	overall        DOUBLE PRECISION,
	rating         TEXT NOT NULL,
	editor         TEXT NOT NULL,
	change_summary TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (project_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_score_history_project ON score_history(project_id, seq);

CREATE TABLE IF NOT EXISTS interconnection_points (
	project_id  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	voltage_kv  DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacity_mw DOUBLE PRECISION NOT NULL DEFAULT 0,
	notes       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (project_id, position)
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProject(ctx context.Context, p model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	fieldsJSON, err := json.Marshal(p.RawFields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal raw fields")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO projects (id, external_key, name, raw_fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (external_key) DO UPDATE SET name = $3, raw_fields = $4, updated_at = $6`,
		p.ID, p.ExternalKey, p.Name, fieldsJSON, now, now,
	)
	return eris.Wrapf(err, "postgres: upsert project %s", p.ExternalKey)
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	var fieldsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, external_key, name, raw_fields, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ExternalKey, &p.Name, &fieldsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get project %s", id)
	}
	if err := json.Unmarshal(fieldsJSON, &p.RawFields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal raw fields")
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, external_key, name, raw_fields, created_at, updated_at
		 FROM projects ORDER BY name LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var fieldsJSON []byte
		if err := rows.Scan(&p.ID, &p.ExternalKey, &p.Name, &fieldsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		if err := json.Unmarshal(fieldsJSON, &p.RawFields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal raw fields")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

// SaveOverride executes the save protocol in one transaction: overwrite the
// current record, append the next history snapshot, and replace the
// interconnection set when one is supplied. Commit or nothing.
func (s *PostgresStore) SaveOverride(ctx context.Context, rec model.ScoreRecord, points []model.InterconnectionPoint) error {
	if len(points) > model.MaxInterconnectionPoints {
		return eris.Wrapf(ErrTooManyPoints, "postgres: %d points", len(points))
	}

	fieldsJSON, err := json.Marshal(rec.RawFields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal raw fields")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO score_records
			(project_id, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, edited_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (project_id) DO UPDATE SET
			raw_fields = $2, co_locate = $3, thermal = $4, redevelopment = $5,
			overall = $6, rating = $7, editor = $8, change_summary = $9, edited_at = $10`,
		rec.ProjectID, fieldsJSON, rec.CoLocate, rec.Thermal, rec.Redevelopment,
		rec.Overall, rec.Rating, rec.Editor, rec.ChangeSummary, rec.EditedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert score record %s", rec.ProjectID)
	}

	entry := rec.Snapshot()
	entry.ID = uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO score_history
			(id, project_id, seq, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, created_at)
		 VALUES ($1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM score_history WHERE project_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.ProjectID, fieldsJSON, entry.CoLocate, entry.Thermal,
		entry.Redevelopment, entry.Overall, entry.Rating, entry.Editor,
		entry.ChangeSummary, entry.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: append history %s", rec.ProjectID)
	}

	if points != nil {
		if err := replacePointsTx(ctx, tx, rec.ProjectID, points); err != nil {
			return err
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save")
}

func (s *PostgresStore) GetScoreRecord(ctx context.Context, projectID string) (*model.ScoreRecord, error) {
	var rec model.ScoreRecord
	var fieldsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT project_id, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, edited_at
		 FROM score_records WHERE project_id = $1`,
		projectID,
	).Scan(&rec.ProjectID, &fieldsJSON, &rec.CoLocate, &rec.Thermal,
		&rec.Redevelopment, &rec.Overall, &rec.Rating, &rec.Editor,
		&rec.ChangeSummary, &rec.EditedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get score record %s", projectID)
	}
	if err := json.Unmarshal(fieldsJSON, &rec.RawFields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal raw fields")
	}
	return &rec, nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, projectID string) ([]model.ScoreHistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, seq, raw_fields, co_locate, thermal, redevelopment, overall, rating, editor, change_summary, created_at
		 FROM score_history WHERE project_id = $1 ORDER BY seq`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list history %s", projectID)
	}
	defer rows.Close()

	var entries []model.ScoreHistoryEntry
	for rows.Next() {
		var e model.ScoreHistoryEntry
		var fieldsJSON []byte
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Seq, &fieldsJSON, &e.CoLocate,
			&e.Thermal, &e.Redevelopment, &e.Overall, &e.Rating, &e.Editor,
			&e.ChangeSummary, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history entry")
		}
		if err := json.Unmarshal(fieldsJSON, &e.RawFields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal history fields")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list history iterate")
}

// ReplaceInterconnections swaps the full interconnection set for a project
// in one transaction. An empty set clears all entries.
func (s *PostgresStore) ReplaceInterconnections(ctx context.Context, projectID string, points []model.InterconnectionPoint) error {
	if len(points) > model.MaxInterconnectionPoints {
		return eris.Wrapf(ErrTooManyPoints, "postgres: %d points", len(points))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := replacePointsTx(ctx, tx, projectID, points); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace")
}

func replacePointsTx(ctx context.Context, tx pgx.Tx, projectID string, points []model.InterconnectionPoint) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM interconnection_points WHERE project_id = $1`, projectID,
	); err != nil {
		return eris.Wrapf(err, "postgres: clear points %s", projectID)
	}
	for i, p := range points {
		if _, err := tx.Exec(ctx,
			`INSERT INTO interconnection_points (project_id, position, name, voltage_kv, capacity_mw, notes)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			projectID, i, p.Name, p.VoltageKV, p.CapacityMW, p.Notes,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert point %d for %s", i, projectID)
		}
	}
	return nil
}

func (s *PostgresStore) ListInterconnections(ctx context.Context, projectID string) ([]model.InterconnectionPoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT project_id, position, name, voltage_kv, capacity_mw, notes
		 FROM interconnection_points WHERE project_id = $1 ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list points %s", projectID)
	}
	defer rows.Close()

	var points []model.InterconnectionPoint
	for rows.Next() {
		var p model.InterconnectionPoint
		if err := rows.Scan(&p.ProjectID, &p.Position, &p.Name, &p.VoltageKV, &p.CapacityMW, &p.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "postgres: list points iterate")
}
