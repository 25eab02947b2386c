package qap

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	legacyxls "github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/veridoc/qatrack/store"
)

// Header aliases probed in order for each logical field, with positional
// fallback (first column for the serial, second for the description) when
// none match. The list is deliberately a table so it can be tested and
// extended without touching the parse loop.
var (
	serialAliases      = []string{"Serial Number", "S.No", "Serial", "Serial No", "Sl. No."}
	descriptionAliases = []string{"Description", "Item Description", "Item", "Activity"}
)

// extractSheet parses a tabular file (first sheet only) into checklist rows.
func extractSheet(path string) ([]*store.QAPSerial, error) {
	var table [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err = readCSV(path)
	case ".ods":
		table, err = readODS(path)
	case ".xls":
		table, err = readLegacyWorkbook(path)
	default:
		table, err = readWorkbook(path)
	}
	if err != nil {
		return nil, err
	}
	return tableToRows(table), nil
}

// tableToRows applies the alias probing to a header row + data rows table.
// Rows where both resolved values are empty are dropped.
func tableToRows(table [][]string) []*store.QAPSerial {
	if len(table) < 2 {
		return nil
	}
	header := table[0]
	serialCol := resolveColumn(header, serialAliases)
	descCol := resolveColumn(header, descriptionAliases)

	var rows []*store.QAPSerial
	for _, record := range table[1:] {
		serial := cellAt(record, serialCol, 0)
		desc := cellAt(record, descCol, 1)
		if serial == "" && desc == "" {
			continue
		}
		rows = append(rows, &store.QAPSerial{
			SerialNumber: serial,
			Description:  desc,
		})
	}
	return rows
}

// resolveColumn returns the index of the first alias present in the header,
// or -1 when none match. Comparison ignores case and surrounding space.
func resolveColumn(header []string, aliases []string) int {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, alias := range aliases {
		want := strings.ToLower(alias)
		for i, h := range norm {
			if h == want {
				return i
			}
		}
	}
	return -1
}

// cellAt reads the resolved column, falling back to the positional column
// when no alias matched.
func cellAt(record []string, col, fallback int) string {
	if col < 0 {
		col = fallback
	}
	if col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

// readWorkbook reads the first sheet of an xlsx-family workbook.
// The binary OOXML container (.xlsb) is not readable by excelize and
// surfaces as a parse error here, which aborts ingestion as any unparseable
// primary input does.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// readLegacyWorkbook reads the first sheet of a BIFF (.xls) workbook, the
// pre-OOXML container excelize does not parse.
func readLegacyWorkbook(path string) ([][]string, error) {
	wb, err := legacyxls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("legacy workbook has no sheets")
	}

	var table [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			continue
		}
		var record []string
		for col := 0; col < row.LastCol(); col++ {
			record = append(record, row.Col(col))
		}
		table = append(table, record)
	}
	return table, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var table [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		table = append(table, record)
	}
	return table, nil
}
