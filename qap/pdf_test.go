package qap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/veridoc/qatrack/store"
)

// buildChecklistPDF writes a minimal single-page PDF whose content stream
// shows each line at its own text position, the layout the extractor
// expects from real checklist PDFs.
func buildChecklistPDF(lines []string) []byte {
	var stream strings.Builder
	stream.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		escaped := strings.ReplaceAll(line, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, "(", `\(`)
		escaped = strings.ReplaceAll(escaped, ")", `\)`)
		if i > 0 {
			stream.WriteString("0 -20 Td\n")
		}
		stream.WriteString("(" + escaped + ") Tj\n")
	}
	stream.WriteString("ET")

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length ")
	b.WriteString(fmt.Sprintf("%d", stream.Len()))
	b.WriteString(" >>\nstream\n")
	b.WriteString(stream.String())
	b.WriteString("\nendstream\nendobj\n")

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(fmt.Sprintf("%d", xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func TestIngestPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.pdf")
	raw := buildChecklistPDF([]string{
		"1.1 Visual inspection",
		"1.2 Hydro test",
		"General inspection note",
	})
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 6, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows, got %d", count)
	}

	rows := st.serials[6]
	if rows[0].SerialNumber != "1.1" || rows[0].Description != "Visual inspection" {
		t.Errorf("row 0 = %q %q", rows[0].SerialNumber, rows[0].Description)
	}
	if rows[1].SerialNumber != "1.2" || rows[1].Description != "Hydro test" {
		t.Errorf("row 1 = %q %q", rows[1].SerialNumber, rows[1].Description)
	}
	// No leading serial token: synthetic fallback, whole line as description.
	if rows[2].SerialNumber != "P3" || rows[2].Description != "General inspection note" {
		t.Errorf("row 2 = %q %q", rows[2].SerialNumber, rows[2].Description)
	}

	// The converted workbook lands beside the source and is recorded.
	convPath := filepath.Join(dir, "qap_converted.xlsx")
	f, err := excelize.OpenFile(convPath)
	if err != nil {
		t.Fatalf("converted workbook: %v", err)
	}
	defer f.Close()
	got, err := f.GetRows("Parsed QAP")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(got))
	}
	if got[0][0] != "Serial Number" || got[0][2] != "Status" {
		t.Errorf("header = %v", got[0])
	}
	if got[1][0] != "1.1" || got[1][2] != "Pending" {
		t.Errorf("data row = %v", got[1])
	}

	if len(st.docs) != 1 {
		t.Fatalf("expected 1 converted document record, got %d", len(st.docs))
	}
	if st.docs[0].Type != store.DocQAPConverted {
		t.Errorf("document type = %q", st.docs[0].Type)
	}
}

func TestIngestPDFSyntheticSerials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qap.pdf")
	// "ok" and "αβ" are both two characters (the latter four bytes) and
	// must be dropped without advancing the synthetic numbering.
	raw := buildChecklistPDF([]string{
		"ok",
		"αβ",
		"General inspection note",
		"Final acceptance check",
	})
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	st := newFakeStore()
	eng := New(st, Config{})

	count, err := eng.Ingest(context.Background(), 2, path)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	rows := st.serials[2]
	if rows[0].SerialNumber != "P1" || rows[0].Description != "General inspection note" {
		t.Errorf("row 0 = %q %q", rows[0].SerialNumber, rows[0].Description)
	}
	if rows[1].SerialNumber != "P2" || rows[1].Description != "Final acceptance check" {
		t.Errorf("row 1 = %q %q", rows[1].SerialNumber, rows[1].Description)
	}
}

func TestIngestPDFNoText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")
	if err := os.WriteFile(path, buildChecklistPDF(nil), 0644); err != nil {
		t.Fatal(err)
	}

	st := newFakeStore()
	eng := New(st, Config{})

	if _, err := eng.Ingest(context.Background(), 1, path); err == nil {
		t.Fatal("expected error for PDF without text content")
	}
}
