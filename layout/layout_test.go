package layout

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/examshot/models"
)

func testStructure() *models.Structure {
	s := models.NewStructure()
	s.Add("DP-700", "Topic1", models.Question{Number: 1, URL: "https://x/1"}, models.Row{Line: 2})
	s.Add("DP-700", "Topic2", models.Question{Number: 2, URL: "https://x/2"}, models.Row{Line: 3})
	s.Add("AZ-104", "Topic1", models.Question{Number: 1, URL: "https://x/3"}, models.Row{Line: 4})
	return s
}

func listDirs(t *testing.T, root string) []string {
	t.Helper()
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			dirs = append(dirs, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(dirs)
	return dirs
}

func TestQuestionPath(t *testing.T) {
	got := QuestionPath("base", "DP-700", "Topic1", 5)
	assert.Equal(t, filepath.Join("base", "DP-700", "Domande", "Topic1", "5.png"), got)
}

func TestProvision_Idempotent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	s := testStructure()

	require.NoError(t, Provision(s, base, ""))
	first := listDirs(t, base)

	require.NoError(t, Provision(s, base, ""))
	second := listDirs(t, base)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		".",
		"AZ-104",
		"AZ-104/Domande",
		"AZ-104/Domande/Topic1",
		"DP-700",
		"DP-700/Domande",
		"DP-700/Domande/Topic1",
		"DP-700/Domande/Topic2",
	}, second)
}

func TestProvision_CopiesSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "questions.XLSX")
	require.NoError(t, os.WriteFile(source, []byte("v1"), 0o644))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(source, mtime, mtime))

	base := filepath.Join(dir, "out")
	require.NoError(t, Provision(testStructure(), base, source))

	for _, course := range []string{"DP-700", "AZ-104"} {
		copyPath := filepath.Join(base, course, "database.xlsx")
		data, err := os.ReadFile(copyPath)
		require.NoError(t, err)
		assert.Equal(t, "v1", string(data))

		info, err := os.Stat(copyPath)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(mtime))
	}

	// copies are always refreshed
	require.NoError(t, os.WriteFile(source, []byte("v2"), 0o644))
	require.NoError(t, Provision(testStructure(), base, source))
	data, err := os.ReadFile(filepath.Join(base, "DP-700", "database.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestProvision_SourceInsideCourseFolder(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "DP-700", "database.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0o755))
	require.NoError(t, os.WriteFile(source, []byte("spreadsheet bytes"), 0o644))

	require.NoError(t, Provision(testStructure(), base, source))

	data, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, "spreadsheet bytes", string(data))

	// other courses still get their copy
	data, err = os.ReadFile(filepath.Join(base, "AZ-104", "database.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "spreadsheet bytes", string(data))

	entries, err := os.ReadDir(filepath.Join(base, "DP-700"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"database.xlsx", "Domande"}, names)
}

func TestProvision_Errors(t *testing.T) {
	dir := t.TempDir()

	// base is a file
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	err := Provision(testStructure(), blocker, "")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeFilesystem, models.CodeOf(err))

	// missing source
	err = Provision(testStructure(), filepath.Join(dir, "out"), filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeFilesystem, models.CodeOf(err))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.png")

	assert.False(t, Exists(path))
	require.NoError(t, WriteFile(path, []byte("png")))
	assert.True(t, Exists(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	err = WriteFile(filepath.Join(dir, "missing", "2.png"), []byte("png"))
	assert.Error(t, err)
}
