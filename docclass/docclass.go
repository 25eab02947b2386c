// Package docclass classifies stored documents by filename extension.
//
// Both core pipelines branch on extension: the report compiler decides
// between page-copying, image embedding, and skipping; the QAP ingester
// picks its extraction strategy. Classification is pure and never errors —
// unknown extensions resolve to the unsupported class.
package docclass

import (
	"path/filepath"
	"strings"
)

// Class is the report compiler's handling strategy for a document.
type Class int

const (
	// ClassUnsupported covers every extension the merger cannot embed.
	ClassUnsupported Class = iota
	// ClassPDF documents have their pages copied into the report.
	ClassPDF
	// ClassImage documents are embedded as a scaled page.
	ClassImage
)

func (c Class) String() string {
	switch c {
	case ClassPDF:
		return "pdf"
	case ClassImage:
		return "image"
	default:
		return "unsupported"
	}
}

// Classify maps a filename to its report-compiler handling class.
// Matching is case-insensitive.
func Classify(filename string) Class {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ClassPDF
	case ".jpg", ".jpeg", ".png":
		return ClassImage
	default:
		return ClassUnsupported
	}
}

// Format is the QAP ingester's extraction strategy.
type Format string

const (
	FormatSheet Format = "sheet"
	FormatText  Format = "text"
	FormatDocx  Format = "docx"
	FormatPDF   Format = "pdf"
)

// QAPFormat maps a filename to the ingester's extraction strategy. The
// second return is false for extensions the ingester does not support.
func QAPFormat(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".xlsb", ".xlsm", ".csv", ".ods":
		return FormatSheet, true
	case ".txt":
		return FormatText, true
	case ".docx":
		return FormatDocx, true
	case ".pdf":
		return FormatPDF, true
	default:
		return "", false
	}
}
