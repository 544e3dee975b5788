package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "pipeline.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadSheet(t *testing.T) {
	path := writeTestWorkbook(t, "Pipeline", [][]string{
		{"Project ID", "Project Name", "COD"},
		{"PLT-001", "Riverside Station", "2001"},
		{"PLT-002", "Lakeview Plant", "#N/A"},
	})

	header, rows, err := ReadSheet(path, SheetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Project ID", "Project Name", "COD"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"PLT-001", "Riverside Station", "2001"}, rows[0])
	// Sentinels pass through untouched; classification is not the reader's job.
	assert.Equal(t, "#N/A", rows[1][2])
}

func TestReadSheet_SkipRows(t *testing.T) {
	path := writeTestWorkbook(t, "Pipeline", [][]string{
		{"Project ID", "COD"},
		{"subtotal", ""},
		{"PLT-001", "2001"},
	})

	_, rows, err := ReadSheet(path, SheetOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PLT-001", rows[0][0])
}

func TestReadSheet_NamedSheet(t *testing.T) {
	path := writeTestWorkbook(t, "Targets", [][]string{
		{"Project ID"},
		{"PLT-001"},
	})

	_, _, err := ReadSheet(path, SheetOptions{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope" not found`)

	header, rows, err := ReadSheet(path, SheetOptions{SheetName: "Targets"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Project ID"}, header)
	assert.Len(t, rows, 1)
}

func TestReadSheet_MissingFile(t *testing.T) {
	_, _, err := ReadSheet(filepath.Join(t.TempDir(), "absent.xlsx"), SheetOptions{})
	require.Error(t, err)
}
