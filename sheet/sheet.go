// Package sheet reads question rows from spreadsheets and link lists.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/examshot/models"
	"github.com/xuri/excelize/v2"
)

// Column headers recognised in spreadsheets (matched case-insensitively).
const (
	ColNumber = "Numero"
	ColLink   = "Link"
	ColTopic  = "Topic"
)

// ReadRows reads every data row of a spreadsheet. .xlsx/.xlsm files are
// read from their first sheet; .csv files are read as comma separated text.
// The first row must be a header containing at least Numero and Link.
func ReadRows(path string) ([]models.Row, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, models.NewError(models.ErrCodeInput, fmt.Sprintf("unsupported spreadsheet type %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}
	return toRows(path, records)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, models.NewError(models.ErrCodeInput, "failed to open spreadsheet "+path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.NewError(models.ErrCodeInput, "spreadsheet has no sheets: "+path, nil)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, models.NewError(models.ErrCodeInput, fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewError(models.ErrCodeInput, "failed to open spreadsheet "+path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewError(models.ErrCodeInput, "failed to parse "+path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// toRows maps raw records to Rows using the header row.
func toRows(path string, records [][]string) ([]models.Row, error) {
	if len(records) == 0 {
		return nil, models.NewError(models.ErrCodeInput, "spreadsheet is empty: "+path, nil)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	numberCol, linkCol, topicCol := -1, -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(h, ColNumber):
			numberCol = i
		case strings.EqualFold(h, ColLink):
			linkCol = i
		case strings.EqualFold(h, ColTopic):
			topicCol = i
		}
	}
	var missing []string
	if numberCol < 0 {
		missing = append(missing, ColNumber)
	}
	if linkCol < 0 {
		missing = append(missing, ColLink)
	}
	if len(missing) > 0 {
		return nil, models.NewError(models.ErrCodeInput,
			fmt.Sprintf("%s: missing required column(s) %s", path, strings.Join(missing, ", ")), nil)
	}

	rows := make([]models.Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if h != "" {
				fields[h] = cell(rec, j)
			}
		}
		rows = append(rows, models.Row{
			Line:   i + 2,
			Number: cell(rec, numberCol),
			Link:   cell(rec, linkCol),
			Topic:  cell(rec, topicCol),
			Fields: fields,
		})
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
