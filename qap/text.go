package qap

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/veridoc/qatrack/store"
)

// extractText turns each non-blank line of a plain text file into one
// checklist row. The 1-based line index becomes the serial number.
func extractText(path string) ([]*store.QAPSerial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []*store.QAPSerial
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, &store.QAPSerial{
			SerialNumber: strconv.Itoa(len(rows) + 1),
			Description:  line,
		})
	}
	return rows, nil
}

// extractDocx extracts paragraph text from word/document.xml inside the
// .docx ZIP container and keeps lines longer than 5 characters after
// trimming. The 1-based index among kept lines becomes the serial number.
func extractDocx(path string) ([]*store.QAPSerial, error) {
	lines, err := docxParagraphs(path)
	if err != nil {
		return nil, err
	}

	var rows []*store.QAPSerial
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 5 {
			continue
		}
		rows = append(rows, &store.QAPSerial{
			SerialNumber: strconv.Itoa(len(rows) + 1),
			Description:  line,
		})
	}
	return rows, nil
}

// docxParagraphs walks word/document.xml and returns one string per
// paragraph (w:p element), in document order.
func docxParagraphs(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	var inParagraph bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				paragraphs = append(paragraphs, current.String())
			}
		}
	}

	return paragraphs, nil
}
