package qap

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// readODS reads the first table of an OpenDocument spreadsheet by walking
// content.xml inside the ZIP container.
func readODS(path string) ([][]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var contentFile *zip.File
	for _, f := range r.File {
		if f.Name == "content.xml" {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return nil, fmt.Errorf("content.xml not found in archive")
	}

	rc, err := contentFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var table [][]string
	var row []string
	var cell strings.Builder
	var inCell bool
	var cellRepeat int
	tableDepth := 0
	sawTable := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table":
				if sawTable && tableDepth == 0 {
					// First table only.
					return table, nil
				}
				sawTable = true
				tableDepth++
			case "table-row":
				row = nil
			case "table-cell":
				inCell = true
				cell.Reset()
				cellRepeat = 1
				for _, attr := range t.Attr {
					if attr.Name.Local == "number-columns-repeated" {
						if n, err := strconv.Atoi(attr.Value); err == nil && n > 0 {
							cellRepeat = n
						}
					}
				}
			}

		case xml.CharData:
			if inCell {
				cell.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "table":
				tableDepth--
				if tableDepth == 0 {
					return table, nil
				}
			case "table-row":
				// Trailing fully-empty rows are common in ODS exports.
				empty := true
				for _, c := range row {
					if c != "" {
						empty = false
						break
					}
				}
				if !empty {
					table = append(table, row)
				}
			case "table-cell":
				inCell = false
				text := strings.TrimSpace(cell.String())
				// Large repeat counts pad to the sheet width; cap the
				// padding so a blank repeated cell cannot explode the row.
				if cellRepeat > 64 {
					cellRepeat = 1
				}
				for i := 0; i < cellRepeat; i++ {
					row = append(row, text)
				}
			}
		}
	}

	if !sawTable {
		return nil, fmt.Errorf("no table found in spreadsheet")
	}
	return table, nil
}
