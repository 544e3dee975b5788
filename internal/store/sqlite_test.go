package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_ProjectRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	id := uuid.New().String()
	require.NoError(t, s.UpsertProject(ctx, model.Project{
		ID:          id,
		ExternalKey: "PLT-001",
		Name:        "Riverside Station",
		RawFields:   map[string]any{"cod_year": "2001", "market": "PJM"},
	}))

	p, err := s.GetProject(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "PLT-001", p.ExternalKey)
	assert.Equal(t, "PJM", p.RawFields["market"])

	// Upsert on the same external key keeps one row.
	require.NoError(t, s.UpsertProject(ctx, model.Project{
		ExternalKey: "PLT-001",
		Name:        "Riverside Station (renamed)",
		RawFields:   map[string]any{"cod_year": "2001"},
	}))
	projects, err := s.ListProjects(ctx, 10)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Riverside Station (renamed)", projects[0].Name)
}

func TestSQLiteStore_GetProject_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	p, err := s.GetProject(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSQLiteStore_SaveOverride_AppendsHistory(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	projectID := uuid.New().String()

	first := 3.1
	rec := model.ScoreRecord{
		ProjectID: projectID,
		RawFields: map[string]any{"cod_year": 2003},
		Overall:   &first,
		Rating:    "moderate",
		Editor:    "analyst@example.com",
		EditedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.SaveOverride(ctx, rec, nil))

	second := 3.975
	rec.Overall = &second
	rec.ChangeSummary = "updated interconnection rating"
	require.NoError(t, s.SaveOverride(ctx, rec, nil))

	// Current record reflects the latest save only.
	got, err := s.GetScoreRecord(ctx, projectID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Overall)
	assert.InDelta(t, 3.975, *got.Overall, 0.0001)
	assert.Nil(t, got.Thermal)

	// History holds both snapshots in sequence order.
	entries, err := s.ListHistory(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(2), entries[1].Seq)
	assert.InDelta(t, 3.1, *entries[0].Overall, 0.0001)
	assert.InDelta(t, 3.975, *entries[1].Overall, 0.0001)
}

func TestSQLiteStore_SaveOverride_PointSemantics(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	projectID := uuid.New().String()

	rec := model.ScoreRecord{
		ProjectID: projectID,
		RawFields: map[string]any{},
		Rating:    "unrated",
		Editor:    "analyst@example.com",
		EditedAt:  time.Now().UTC(),
	}

	points := []model.InterconnectionPoint{
		{Name: "North Sub", VoltageKV: 345, CapacityMW: 800},
		{Name: "South Tap", VoltageKV: 138, CapacityMW: 200},
	}
	require.NoError(t, s.SaveOverride(ctx, rec, points))

	stored, err := s.ListInterconnections(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 0, stored[0].Position)
	assert.Equal(t, "North Sub", stored[0].Name)
	assert.Equal(t, 1, stored[1].Position)

	// Nil leaves the set untouched.
	require.NoError(t, s.SaveOverride(ctx, rec, nil))
	stored, err = s.ListInterconnections(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// An empty non-nil slice clears it.
	require.NoError(t, s.SaveOverride(ctx, rec, []model.InterconnectionPoint{}))
	stored, err = s.ListInterconnections(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSQLiteStore_ReplaceInterconnections_CapAndRollback(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	projectID := uuid.New().String()

	require.NoError(t, s.ReplaceInterconnections(ctx, projectID, []model.InterconnectionPoint{
		{Name: "Keep Me"},
	}))

	// Six entries exceed the cap; the stored set must be untouched.
	tooMany := make([]model.InterconnectionPoint, model.MaxInterconnectionPoints+1)
	err := s.ReplaceInterconnections(ctx, projectID, tooMany)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrTooManyPoints))

	stored, err := s.ListInterconnections(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Keep Me", stored[0].Name)
}

func TestSQLiteStore_GetScoreRecord_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	rec, err := s.GetScoreRecord(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
