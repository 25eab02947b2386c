package qap

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/veridoc/qatrack/store"
)

const convertedSheetName = "Parsed QAP"

// convertToWorkbook writes the rows extracted from a QAP PDF back out as a
// workbook beside the source file and records it as a QAP_CONVERTED
// document, so reviewers get a tabular rendition of the parsed checklist.
func (e *Engine) convertToWorkbook(ctx context.Context, projectID int64, pdfPath string, rows []*store.QAPSerial) error {
	outPath := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + "_converted.xlsx"

	if err := writeWorkbook(outPath, rows); err != nil {
		return err
	}

	base := filepath.Base(outPath)
	_, err := e.st.InsertDocument(ctx, &store.Document{
		ProjectID:    projectID,
		Type:         store.DocQAPConverted,
		Filename:     base,
		OriginalName: base,
		Path:         filepath.ToSlash(filepath.Join("uploads", strconv.FormatInt(projectID, 10), base)),
	})
	if err != nil {
		return fmt.Errorf("record converted document: %w", err)
	}
	return nil
}

// writeWorkbook writes the checklist as a single-sheet workbook with a
// fixed "Pending" status column and empty remarks.
func writeWorkbook(path string, rows []*store.QAPSerial) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", convertedSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Serial Number", "Description", "Status", "Remarks"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(convertedSheetName, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []string{row.SerialNumber, row.Description, "Pending", ""}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(convertedSheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
