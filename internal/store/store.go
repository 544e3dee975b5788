// Package store persists projects, score records, score history, and
// interconnection points behind a single interface with Postgres and
// SQLite drivers.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
)

// ErrTooManyPoints is returned when a replacement set exceeds
// model.MaxInterconnectionPoints. Nothing is written.
var ErrTooManyPoints = eris.New("store: interconnection point cap exceeded")

// Store defines the persistence contract for the scoring dashboard.
//
// SaveOverride is the only compound write: it must overwrite the current
// score record, append the history snapshot, and (when points is non-nil)
// replace the interconnection set, atomically. points == nil leaves the
// existing set untouched; an empty non-nil slice clears it.
type Store interface {
	// Projects
	UpsertProject(ctx context.Context, p model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context, limit int) ([]model.Project, error)

	// Score record lifecycle
	SaveOverride(ctx context.Context, rec model.ScoreRecord, points []model.InterconnectionPoint) error
	GetScoreRecord(ctx context.Context, projectID string) (*model.ScoreRecord, error)
	ListHistory(ctx context.Context, projectID string) ([]model.ScoreHistoryEntry, error)

	// Interconnection points
	ReplaceInterconnections(ctx context.Context, projectID string, points []model.InterconnectionPoint) error
	ListInterconnections(ctx context.Context, projectID string) ([]model.InterconnectionPoint, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
