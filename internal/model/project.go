// Package model defines the persisted entities of the project pipeline:
// projects, score records, score history, and interconnection points.
package model

import "time"

// Project is one power-generation project in the pipeline. RawFields holds
// the spreadsheet-derived inputs keyed by canonical field key; scores are
// derived from these fields, never stored on the project itself.
type Project struct {
	ID          string         `json:"id"`
	ExternalKey string         `json:"external_key"`
	Name        string         `json:"name"`
	RawFields   map[string]any `json:"raw_fields"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// MaxInterconnectionPoints caps the per-project interconnection collection.
const MaxInterconnectionPoints = 5

// InterconnectionPoint is a point-of-interconnection entry owned by one
// project. The full set is replaced wholesale on every save; removals are
// expressed by omission.
type InterconnectionPoint struct {
	ProjectID  string  `json:"project_id"`
	Position   int     `json:"position"`
	Name       string  `json:"name"`
	VoltageKV  float64 `json:"voltage_kv"`
	CapacityMW float64 `json:"capacity_mw"`
	Notes      string  `json:"notes,omitempty"`
}
