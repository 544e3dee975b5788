// Package override implements the score-record lifecycle: validated,
// server-side recomputed saves with an append-only audit history.
package override

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/score"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/store"
)

var (
	// ErrInvalidProjectID marks a malformed project identifier.
	ErrInvalidProjectID = eris.New("override: invalid project id")
	// ErrNotFound marks a project with no saved score record.
	ErrNotFound = eris.New("override: score record not found")
)

// Service orchestrates the save protocol. Scores are always recomputed here
// from the submitted raw inputs; caller-supplied computed values are never
// read, so stored scores are a deterministic function of stored inputs.
type Service struct {
	store  store.Store
	engine *score.Engine
	now    func() time.Time
}

// NewService builds a Service over the given store and engine.
func NewService(st store.Store, eng *score.Engine) *Service {
	return &Service{
		store:  st,
		engine: eng,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SaveRequest carries one override save. RawFields may use canonical keys
// or legacy spreadsheet labels. Interconnections == nil leaves the stored
// set untouched; an empty non-nil slice clears it.
type SaveRequest struct {
	ProjectID        string
	RawFields        map[string]any
	CoLocate         string
	Interconnections []model.InterconnectionPoint
	Editor           string
	ChangeSummary    string
}

// Save validates the request, recomputes every composite score from the raw
// inputs, and persists current record, history snapshot, and (optionally)
// interconnection points in one transaction. Missing business data never
// fails a save; the affected scores persist as null.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*model.ScoreRecord, error) {
	if _, err := uuid.Parse(req.ProjectID); err != nil {
		return nil, eris.Wrapf(ErrInvalidProjectID, "%q", req.ProjectID)
	}
	if len(req.Interconnections) > model.MaxInterconnectionPoints {
		return nil, eris.Wrapf(store.ErrTooManyPoints, "override: %d points", len(req.Interconnections))
	}

	fields := s.engine.ResolveFields(req.RawFields)
	if req.CoLocate != "" {
		fields[score.KeyCoLocate] = req.CoLocate
	}
	result := s.engine.Compute(fields)

	rec := model.ScoreRecord{
		ProjectID:     req.ProjectID,
		RawFields:     fields,
		CoLocate:      req.CoLocate,
		Thermal:       result.Thermal.Ptr(),
		Redevelopment: result.Redevelopment.Ptr(),
		Overall:       result.Overall.Ptr(),
		Rating:        string(result.Rating),
		Editor:        req.Editor,
		ChangeSummary: req.ChangeSummary,
		EditedAt:      s.now(),
	}

	if err := s.store.SaveOverride(ctx, rec, req.Interconnections); err != nil {
		return nil, err
	}

	zap.L().Info("override: saved score record",
		zap.String("project_id", req.ProjectID),
		zap.String("editor", req.Editor),
		zap.String("rating", rec.Rating),
	)
	return &rec, nil
}

// Compute evaluates scores for display without persisting anything.
func (s *Service) Compute(rawFields map[string]any) score.Result {
	return s.engine.Compute(rawFields)
}

// Current returns the saved score record for a project, or ErrNotFound.
func (s *Service) Current(ctx context.Context, projectID string) (*model.ScoreRecord, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, eris.Wrapf(ErrInvalidProjectID, "%q", projectID)
	}
	rec, err := s.store.GetScoreRecord(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, eris.Wrapf(ErrNotFound, "project %s", projectID)
	}
	return rec, nil
}

// History returns the audit trail for a project, oldest first. Each call
// re-reads current state.
func (s *Service) History(ctx context.Context, projectID string) ([]model.ScoreHistoryEntry, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, eris.Wrapf(ErrInvalidProjectID, "%q", projectID)
	}
	return s.store.ListHistory(ctx, projectID)
}

// ReplaceInterconnections swaps a project's interconnection set. An empty
// set clears all entries; more than the cap is rejected with nothing written.
func (s *Service) ReplaceInterconnections(ctx context.Context, projectID string, points []model.InterconnectionPoint) error {
	if _, err := uuid.Parse(projectID); err != nil {
		return eris.Wrapf(ErrInvalidProjectID, "%q", projectID)
	}
	return s.store.ReplaceInterconnections(ctx, projectID, points)
}

// Interconnections returns a project's current interconnection set.
func (s *Service) Interconnections(ctx context.Context, projectID string) ([]model.InterconnectionPoint, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, eris.Wrapf(ErrInvalidProjectID, "%q", projectID)
	}
	return s.store.ListInterconnections(ctx, projectID)
}
