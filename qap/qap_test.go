package qap

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/veridoc/qatrack/store"
)

type fakeStore struct {
	serials map[int64][]*store.QAPSerial
	docs    []*store.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{serials: make(map[int64][]*store.QAPSerial)}
}

func (f *fakeStore) ReplaceSerials(_ context.Context, projectID int64, serials []*store.QAPSerial) error {
	f.serials[projectID] = serials
	return nil
}

func (f *fakeStore) InsertDocument(_ context.Context, d *store.Document) (int64, error) {
	f.docs = append(f.docs, d)
	return int64(len(f.docs)), nil
}

func TestIngestText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.txt")
	content := "Visual inspection\n\n  Dimensional check  \n\nHydro test\n"
	os.WriteFile(path, []byte(content), 0644)

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 7, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows, got %d", count)
	}

	rows := st.serials[7]
	if rows[0].SerialNumber != "1" || rows[0].Description != "Visual inspection" {
		t.Errorf("row 0 = %q %q", rows[0].SerialNumber, rows[0].Description)
	}
	if rows[2].SerialNumber != "3" || rows[2].Description != "Hydro test" {
		t.Errorf("row 2 = %q %q", rows[2].SerialNumber, rows[2].Description)
	}
}

func TestIngestDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.docx")

	// Create a minimal .docx file.
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Visual inspection of welds</w:t></w:r></w:p>
<w:p><w:r><w:t>ok</w:t></w:r></w:p>
<w:p><w:r><w:t>αβγδ</w:t></w:r></w:p>
<w:p><w:r><w:t>Dimensional verification</w:t></w:r></w:p>
</w:body>
</w:document>`

	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(docXML))
	w.Close()
	f.Close()

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 3, path)
	if err != nil {
		t.Fatal(err)
	}
	// Short paragraphs are filtered by character count, not byte length:
	// "αβγδ" is eight bytes but four characters and is dropped too.
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
	rows := st.serials[3]
	if rows[1].SerialNumber != "2" || rows[1].Description != "Dimensional verification" {
		t.Errorf("row 1 = %q %q", rows[1].SerialNumber, rows[1].Description)
	}
}

func TestIngestCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.csv")
	content := "S.No,Activity,Notes\n1.1,Visual inspection,first\n1.2,Hydro test,second\n,,\n"
	os.WriteFile(path, []byte(content), 0644)

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 5, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
	rows := st.serials[5]
	if rows[0].SerialNumber != "1.1" || rows[0].Description != "Visual inspection" {
		t.Errorf("row 0 = %q %q", rows[0].SerialNumber, rows[0].Description)
	}
}

func TestIngestWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.xlsx")

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Serial Number")
	f.SetCellValue("Sheet1", "B1", "Description")
	f.SetCellValue("Sheet1", "A2", "1")
	f.SetCellValue("Sheet1", "B2", "Material certificate review")
	f.SetCellValue("Sheet1", "A3", "2")
	f.SetCellValue("Sheet1", "B3", "FAT witness")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 9, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
	rows := st.serials[9]
	if rows[1].SerialNumber != "2" || rows[1].Description != "FAT witness" {
		t.Errorf("row 1 = %q %q", rows[1].SerialNumber, rows[1].Description)
	}
}

func TestIngestLegacyWorkbookCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.xls")
	os.WriteFile(path, []byte("not a compound document"), 0644)

	st := newFakeStore()
	eng := New(st, Config{})

	if _, err := eng.Ingest(context.Background(), 1, path); err == nil {
		t.Fatal("expected error for corrupt legacy workbook")
	}
	if _, replaced := st.serials[1]; replaced {
		t.Fatal("failed extraction must not replace the existing checklist")
	}
}

func TestIngestODS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.ods")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)

	contentXML := `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:spreadsheet>
<table:table table:name="QAP">
<table:table-row>
<table:table-cell><text:p>Serial No</text:p></table:table-cell>
<table:table-cell><text:p>Item</text:p></table:table-cell>
</table:table-row>
<table:table-row>
<table:table-cell><text:p>1</text:p></table:table-cell>
<table:table-cell><text:p>Surface preparation</text:p></table:table-cell>
</table:table-row>
<table:table-row>
<table:table-cell table:number-columns-repeated="2"/>
</table:table-row>
</table:table>
</office:spreadsheet></office:body>
</office:document-content>`

	fw, _ := w.Create("content.xml")
	fw.Write([]byte(contentXML))
	w.Close()
	f.Close()

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 4, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
	rows := st.serials[4]
	if rows[0].SerialNumber != "1" || rows[0].Description != "Surface preparation" {
		t.Errorf("row 0 = %q %q", rows[0].SerialNumber, rows[0].Description)
	}
}

func TestIngestZeroRowsKeepsChecklist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	os.WriteFile(path, []byte("\n   \n\n"), 0644)

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 2, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected 0 rows, got %d", count)
	}
	if _, replaced := st.serials[2]; replaced {
		t.Fatal("empty extraction must not replace the existing checklist")
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	st := newFakeStore()
	eng := New(st, Config{})

	if _, err := eng.Ingest(context.Background(), 1, "plan.doc"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestIngestTempRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.txt")
	os.WriteFile(path, []byte("Visual inspection\n"), 0644)

	st := newFakeStore()
	eng := New(st, Config{})

	if _, err := eng.IngestTemp(context.Background(), 1, path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("temp file should have been removed")
	}
}

func TestTableToRowsPositionalFallback(t *testing.T) {
	table := [][]string{
		{"Col A", "Col B"},
		{"1", "Visual inspection"},
		{"2", "Hydro test"},
	}
	rows := tableToRows(table)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].SerialNumber != "1" || rows[0].Description != "Visual inspection" {
		t.Errorf("row 0 = %q %q", rows[0].SerialNumber, rows[0].Description)
	}
}
