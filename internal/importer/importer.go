// Package importer loads project pipeline spreadsheets into the projects
// table. Scores are never imported: they are derived on read or on
// override save from the raw fields stored here.
package importer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/db"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/fetcher"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/score"
)

// Identity columns of the export, outside the scoring field registry.
var identityLabels = map[string][]string{
	"external_key": {"external_key", "project id", "plant id", "key"},
	"name":         {"name", "project name", "plant name", "project"},
}

// Importer reads spreadsheet rows and bulk-upserts them as projects.
type Importer struct {
	pool    db.Pool
	aliases *score.AliasRegistry
}

// New builds an Importer. A nil registry uses the default aliases.
func New(pool db.Pool, aliases *score.AliasRegistry) *Importer {
	if aliases == nil {
		aliases = score.DefaultAliases()
	}
	return &Importer{pool: pool, aliases: aliases}
}

// Run imports the spreadsheet at path and returns the number of rows
// upserted. Rows without a project key are skipped with a warning.
func (im *Importer) Run(ctx context.Context, path string, opts fetcher.SheetOptions) (int, error) {
	header, rows, err := fetcher.ReadSheet(path, opts)
	if err != nil {
		return 0, eris.Wrap(err, "importer: read sheet")
	}

	cols := im.mapColumns(header)
	if cols.keyCol < 0 {
		return 0, eris.Errorf("importer: no project key column in header %v", header)
	}

	now := time.Now().UTC()
	var upsertRows [][]any
	skipped := 0
	for i, row := range rows {
		key := cellAt(row, cols.keyCol)
		if strings.TrimSpace(key) == "" {
			skipped++
			zap.L().Warn("importer: row without project key",
				zap.Int("row", i+2), // 1-based, after header
			)
			continue
		}

		rawFields := make(map[string]any, len(cols.fieldCols))
		for col, canonical := range cols.fieldCols {
			if v := cellAt(row, col); v != "" {
				rawFields[canonical] = v
			}
		}
		fieldsJSON, err := json.Marshal(rawFields)
		if err != nil {
			return 0, eris.Wrapf(err, "importer: marshal row %d", i+2)
		}

		upsertRows = append(upsertRows, []any{
			uuid.New().String(),
			strings.TrimSpace(key),
			strings.TrimSpace(cellAt(row, cols.nameCol)),
			fieldsJSON,
			now,
			now,
		})
	}

	n, err := db.BulkUpsert(ctx, im.pool, db.UpsertSpec{
		Table:        "projects",
		Columns:      []string{"id", "external_key", "name", "raw_fields", "created_at", "updated_at"},
		ConflictKeys: []string{"external_key"},
		UpdateCols:   []string{"name", "raw_fields", "updated_at"},
	}, upsertRows)
	if err != nil {
		return 0, eris.Wrap(err, "importer: upsert projects")
	}

	zap.L().Info("importer: import complete",
		zap.String("path", path),
		zap.Int64("upserted", n),
		zap.Int("skipped", skipped),
	)
	return int(n), nil
}

type columnMap struct {
	keyCol    int
	nameCol   int
	fieldCols map[int]string // column index -> canonical field key
}

// mapColumns resolves header labels: identity columns by their own alias
// table, scoring columns through the field-alias registry. Unknown columns
// are ignored.
func (im *Importer) mapColumns(header []string) columnMap {
	cols := columnMap{keyCol: -1, nameCol: -1, fieldCols: make(map[int]string)}
	for i, label := range header {
		norm := strings.ToLower(strings.TrimSpace(label))
		if cols.keyCol < 0 && matchesAny(norm, identityLabels["external_key"]) {
			cols.keyCol = i
			continue
		}
		if cols.nameCol < 0 && matchesAny(norm, identityLabels["name"]) {
			cols.nameCol = i
			continue
		}
		if canonical, ok := im.aliases.Canonical(label); ok {
			cols.fieldCols[i] = canonical
		}
	}
	return cols
}

func matchesAny(norm string, labels []string) bool {
	for _, l := range labels {
		if norm == l {
			return true
		}
	}
	return false
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
