// Package qap extracts quality-assurance-plan checklists from uploaded
// documents.
//
// Supported formats:
//   - spreadsheet family (.xlsx .xls .xlsb .xlsm .csv .ods) — tabular parse
//     of the first sheet with header-alias probing
//   - .txt  — one checklist row per non-blank line
//   - .docx — archive/zip → word/document.xml paragraphs
//   - .pdf  — content-stream text extraction with serial-number heuristics,
//     plus a converted-workbook side artifact
//
// A successful extraction replaces the project's entire checklist in one
// transaction and resets its progress to zero. An extraction yielding zero
// rows is a guarded no-op: a bad upload never wipes an existing checklist.
package qap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/veridoc/qatrack/docclass"
	"github.com/veridoc/qatrack/store"
)

// Store is the persistence surface the engine needs.
type Store interface {
	ReplaceSerials(ctx context.Context, projectID int64, serials []*store.QAPSerial) error
	InsertDocument(ctx context.Context, d *store.Document) (int64, error)
}

// Config configures an Engine.
type Config struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine is the QAP ingestion pipeline.
type Engine struct {
	st     Store
	cfg    Config
	logger *slog.Logger
}

// New creates an Engine backed by st.
func New(st Store, cfg Config) *Engine {
	cfg.defaults()
	return &Engine{st: st, cfg: cfg, logger: cfg.Logger}
}

// Ingest extracts a checklist from the file at path and replaces the
// project's serials with it. It returns the number of rows created; zero
// means the extraction found nothing and the existing checklist was left
// untouched. Unreadable or unparseable input is an error.
func (e *Engine) Ingest(ctx context.Context, projectID int64, path string) (int, error) {
	format, ok := docclass.QAPFormat(path)
	if !ok {
		return 0, fmt.Errorf("qap: unsupported extension %q", filepath.Ext(path))
	}

	logCtx := e.logger.With("project_id", projectID, "path", path, "format", string(format))

	var rows []*store.QAPSerial
	var err error
	switch format {
	case docclass.FormatSheet:
		rows, err = extractSheet(path)
	case docclass.FormatText:
		rows, err = extractText(path)
	case docclass.FormatDocx:
		rows, err = extractDocx(path)
	case docclass.FormatPDF:
		rows, err = e.extractPDF(ctx, logCtx, projectID, path)
	}
	if err != nil {
		return 0, fmt.Errorf("qap: extract %s: %w", path, err)
	}

	if len(rows) == 0 {
		// Deliberate guard: never destroy a checklist on an empty upload.
		logCtx.Warn("extraction yielded zero rows, existing checklist kept")
		return 0, nil
	}

	if err := e.st.ReplaceSerials(ctx, projectID, rows); err != nil {
		return 0, fmt.Errorf("qap: replace serials: %w", err)
	}

	logCtx.Info("checklist replaced", "rows", len(rows))
	return len(rows), nil
}

// IngestTemp ingests a temporary file the engine takes ownership of: the
// file is removed on return, whether ingestion succeeded or not.
func (e *Engine) IngestTemp(ctx context.Context, projectID int64, path string) (int, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}()
	return e.Ingest(ctx, projectID, path)
}
