package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/examshot/models"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for ref, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, ref, v))
	}
	path := filepath.Join(t.TempDir(), "database.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadRows_XLSX(t *testing.T) {
	path := writeXLSX(t, map[string]any{
		"A1": "Numero", "B1": "Link", "C1": "Topic", "D1": "Note",
		"A2": 1, "B2": "https://x/exam-dp-700-topic-1-question-5",
		"A3": 2, "B3": "https://x/exam-dp-700-topic-1-question-6", "C3": 3.0, "D3": "hard",
		"A4": 3,
	})

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "1", rows[0].Number)
	assert.Equal(t, "https://x/exam-dp-700-topic-1-question-5", rows[0].Link)
	assert.Equal(t, "", rows[0].Topic)

	assert.Equal(t, "3", rows[1].Topic)
	assert.Equal(t, "hard", rows[1].Fields["Note"])

	assert.Equal(t, "3", rows[2].Number)
	assert.Equal(t, "", rows[2].Link)
}

func TestReadRows_MissingColumn(t *testing.T) {
	path := writeXLSX(t, map[string]any{
		"A1": "Numero", "B1": "URL",
		"A2": 1, "B2": "https://x/a",
	})

	_, err := ReadRows(path)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInput, models.CodeOf(err))
	assert.Contains(t, err.Error(), ColLink)
}

func TestReadRows_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.csv")
	content := "\ufeffnumero, LINK ,topic\n1,https://x/exam-az-104-topic-2-question-1,\n2,,\n3,https://x/exam-az-104-topic-2-question-3,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "https://x/exam-az-104-topic-2-question-1", rows[0].Link)
	assert.Equal(t, "", rows[1].Link)
	assert.Equal(t, "4", rows[2].Topic)
	assert.Equal(t, 4, rows[2].Line)
}

func TestReadRows_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadRows(filepath.Join(dir, "missing.xlsx"))
	assert.Equal(t, models.ErrCodeInput, models.CodeOf(err))

	_, err = ReadRows(filepath.Join(dir, "links.txt"))
	assert.Equal(t, models.ErrCodeInput, models.CodeOf(err))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadRows(empty)
	assert.Equal(t, models.ErrCodeInput, models.CodeOf(err))

	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip"), 0o644))
	_, err = ReadRows(garbage)
	assert.Equal(t, models.ErrCodeInput, models.CodeOf(err))
}
