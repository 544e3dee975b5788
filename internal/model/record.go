package model

import "time"

// ScoreRecord is the current expert-edited override for one project: the
// raw component inputs, the recomputed composite scores, and edit metadata.
// One record per project, overwritten on each save. A nil score means the
// composite could not be evaluated, which is distinct from a present zero.
type ScoreRecord struct {
	ProjectID     string         `json:"project_id"`
	RawFields     map[string]any `json:"raw_fields"`
	CoLocate      string         `json:"co_locate,omitempty"`
	Thermal       *float64       `json:"thermal"`
	Redevelopment *float64       `json:"redevelopment"`
	Overall       *float64       `json:"overall"`
	Rating        string         `json:"rating"`
	Editor        string         `json:"editor"`
	ChangeSummary string         `json:"change_summary,omitempty"`
	EditedAt      time.Time      `json:"edited_at"`
}

// ScoreHistoryEntry is an immutable snapshot of a ScoreRecord taken at save
// time, keyed by an append-only per-project sequence. Entries are never
// mutated or deleted.
type ScoreHistoryEntry struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Seq           int64          `json:"seq"`
	RawFields     map[string]any `json:"raw_fields"`
	CoLocate      string         `json:"co_locate,omitempty"`
	Thermal       *float64       `json:"thermal"`
	Redevelopment *float64       `json:"redevelopment"`
	Overall       *float64       `json:"overall"`
	Rating        string         `json:"rating"`
	Editor        string         `json:"editor"`
	ChangeSummary string         `json:"change_summary,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Snapshot builds the history entry capturing this record. ID and Seq are
// assigned by the store at append time.
func (r *ScoreRecord) Snapshot() ScoreHistoryEntry {
	return ScoreHistoryEntry{
		ProjectID:     r.ProjectID,
		RawFields:     r.RawFields,
		CoLocate:      r.CoLocate,
		Thermal:       r.Thermal,
		Redevelopment: r.Redevelopment,
		Overall:       r.Overall,
		Rating:        r.Rating,
		Editor:        r.Editor,
		ChangeSummary: r.ChangeSummary,
		CreatedAt:     r.EditedAt,
	}
}
