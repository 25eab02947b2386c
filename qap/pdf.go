package qap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/veridoc/qatrack/store"
)

// extractPDF extracts checklist rows from a PDF's text. Lines longer than 2
// characters after trimming become rows: a recognised leading token (see
// SerialMatcher) supplies the serial number, otherwise a synthetic "P<n>"
// is assigned and the whole line becomes the description.
//
// As a side effect the extracted rows are written back out as a workbook
// beside the source file and recorded as a QAP_CONVERTED document. The
// conversion is best-effort: a failure is logged and ingestion continues.
func (e *Engine) extractPDF(ctx context.Context, logCtx *slog.Logger, projectID int64, path string) ([]*store.QAPSerial, error) {
	lines, err := pdfLines(path)
	if err != nil {
		return nil, err
	}

	var matcher SerialMatcher
	var rows []*store.QAPSerial
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 2 {
			continue
		}
		serial, desc, ok := matcher.Match(line)
		if !ok {
			// Synthetic serial: 1-based index among kept rows, matching
			// the txt/docx numbering.
			serial = fmt.Sprintf("P%d", len(rows)+1)
			desc = line
		}
		rows = append(rows, &store.QAPSerial{
			SerialNumber: serial,
			Description:  desc,
		})
	}

	if len(rows) > 0 {
		if err := e.convertToWorkbook(ctx, projectID, path, rows); err != nil {
			logCtx.Warn("failed to save converted workbook", "error", err)
		}
	}

	return rows, nil
}

// pdfLines extracts text lines from every page of a PDF via pdfcpu content
// streams. Validation is relaxed so slightly malformed files still parse.
func pdfLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var lines []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		lines = append(lines, streamLines(data)...)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("no text content found in PDF")
	}
	return lines, nil
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// streamLines parses PDF content-stream operators into text lines. Text
// shown by Tj/TJ accumulates on the current line; the positioning operators
// (Td, TD, T*, ') start a new one. Checklist PDFs lay out one item per
// positioned line, which is exactly what the serial matcher needs.
func streamLines(data []byte) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		line := cleanLine(current.String())
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(raw, []byte("Tj")), bytes.HasSuffix(raw, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(raw, -1) {
				current.WriteString(decodePDFString(m[1]))
			}

		case bytes.HasSuffix(raw, []byte("'")) && bytes.Contains(raw, []byte("(")):
			flush()
			for _, m := range pdfStringRe.FindAllSubmatch(raw, -1) {
				current.WriteString(decodePDFString(m[1]))
			}

		case bytes.HasSuffix(raw, []byte("Td")), bytes.HasSuffix(raw, []byte("TD")),
			bytes.Equal(raw, []byte("T*")):
			flush()
		}
	}
	flush()

	return lines
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanLine normalises whitespace within an extracted line.
func cleanLine(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
