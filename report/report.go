// Package report compiles a project's closure report: one merged PDF with a
// generated summary section followed by the project's source documents in a
// fixed category sequence.
//
// The compiler is deliberately tolerant of bad inputs. A missing, corrupt,
// password-protected, or unsupported source document is skipped with a
// logged warning and recorded in the result's outcome list; only a failure
// to produce the mandatory summary section aborts the compilation, because
// a closure record without its summary is not a valid artifact.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/veridoc/qatrack/docclass"
	"github.com/veridoc/qatrack/idgen"
	"github.com/veridoc/qatrack/store"
)

// ErrSummary wraps any failure while rendering the mandatory summary
// section. It always aborts the compilation.
var ErrSummary = errors.New("report: summary section failed")

// MergeSequence is the fixed category order of source documents in the
// compiled report. The QAP checklist itself is represented structurally by
// the summary, not merged as a raw document.
var MergeSequence = []string{
	store.DocPO,
	store.DocFCL,
	store.DocFCM,
	store.DocFATTrial,
	store.DocFormIV,
	store.DocDrawing,
}

// Store is the persistence surface the compiler reads from.
type Store interface {
	Project(ctx context.Context, id int64) (*store.Project, error)
	DocumentsByType(ctx context.Context, projectID int64, docType string) ([]*store.Document, error)
	UserName(ctx context.Context, id int64) (string, error)
}

// Config configures a Compiler.
type Config struct {
	// DataDir is the public storage root; document relative paths resolve
	// against it and the report lands under
	// DataDir/uploads/<projectID>/reports/.
	DataDir string

	// NewToken generates the uniqueness token appended to report
	// filenames. Defaults to idgen.NewFileToken.
	NewToken idgen.Generator

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.NewToken == nil {
		c.NewToken = idgen.NewFileToken
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Outcome records how one source document fared during compilation.
type Outcome struct {
	Document *store.Document
	Status   string // "merged", "embedded", "skipped"
	Pages    int    // pages contributed (merged PDFs only)
	Reason   string // skip reason, "" otherwise
}

// Result is a successful compilation.
type Result struct {
	Filename     string
	RelativePath string
	Outcomes     []Outcome
}

// Compiler assembles closure reports.
type Compiler struct {
	st     Store
	cfg    Config
	logger *slog.Logger
	conf   *model.Configuration
}

// New creates a Compiler backed by st.
func New(st Store, cfg Config) *Compiler {
	cfg.defaults()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Compiler{st: st, cfg: cfg, logger: cfg.Logger, conf: conf}
}

// Compile builds the closure report for a project and writes it under the
// project's report storage area. It returns the generated filename, its
// path relative to the public storage root, and the per-document outcomes.
func (c *Compiler) Compile(ctx context.Context, projectID int64) (*Result, error) {
	p, err := c.st.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	engineer, err := c.st.UserName(ctx, p.EngineerID)
	if err != nil {
		return nil, err
	}
	jcqao, err := c.st.UserName(ctx, p.JCQAOID)
	if err != nil {
		return nil, err
	}

	logCtx := c.logger.With("project_id", projectID, "po_number", p.PONumber)
	logCtx.Info("compiling closure report")

	tempDir, err := os.MkdirTemp("", "closure-report-*")
	if err != nil {
		return nil, fmt.Errorf("report: temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Summary section first; any failure here is fatal.
	summaryPDF, err := c.buildSummary(p, engineer, jcqao, tempDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummary, err)
	}

	// Fold over the document set: each good document contributes a part
	// file, each bad one a warning outcome.
	parts := []string{summaryPDF}
	var outcomes []Outcome
	for _, docType := range MergeSequence {
		docs, err := c.st.DocumentsByType(ctx, projectID, docType)
		if err != nil {
			return nil, fmt.Errorf("report: load %s documents: %w", docType, err)
		}
		for _, doc := range docs {
			outcome := c.preparePart(logCtx, doc, tempDir, len(parts))
			if outcome.Status != "skipped" {
				parts = append(parts, filepath.Join(tempDir, partName(len(parts))))
			}
			outcomes = append(outcomes, outcome)
		}
	}

	filename := reportFilename(p.PONumber, c.cfg.NewToken())
	reportsDir := filepath.Join(c.cfg.DataDir, "uploads", strconv.FormatInt(projectID, 10), "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("report: mkdir: %w", err)
	}
	outPath := filepath.Join(reportsDir, filename)

	if err := api.MergeCreateFile(parts, outPath, false, c.conf); err != nil {
		return nil, fmt.Errorf("report: merge: %w", err)
	}

	relPath := filepath.ToSlash(filepath.Join("uploads", strconv.FormatInt(projectID, 10), "reports", filename))
	logCtx.Info("closure report written", "filename", filename, "documents", len(outcomes))
	return &Result{Filename: filename, RelativePath: relPath, Outcomes: outcomes}, nil
}

// preparePart turns one source document into a mergeable part file in
// tempDir, or a skip outcome. partIdx names the part file deterministically.
func (c *Compiler) preparePart(logCtx *slog.Logger, doc *store.Document, tempDir string, partIdx int) Outcome {
	srcPath := filepath.Join(c.cfg.DataDir, filepath.FromSlash(doc.Path))
	dst := filepath.Join(tempDir, partName(partIdx))

	if _, err := os.Stat(srcPath); err != nil {
		return c.skip(logCtx, doc, "file missing from storage")
	}

	switch docclass.Classify(doc.Filename) {
	case docclass.ClassPDF:
		pages, err := c.preparePDF(srcPath, dst)
		if err != nil {
			return c.skip(logCtx, doc, err.Error())
		}
		logCtx.Info("merged document pages", "document_id", doc.ID, "filename", doc.Filename, "pages", pages)
		return Outcome{Document: doc, Status: "merged", Pages: pages}

	case docclass.ClassImage:
		if err := c.prepareImage(srcPath, dst); err != nil {
			return c.skip(logCtx, doc, err.Error())
		}
		return Outcome{Document: doc, Status: "embedded"}

	default:
		return c.skip(logCtx, doc, "unsupported file type")
	}
}

func (c *Compiler) skip(logCtx *slog.Logger, doc *store.Document, reason string) Outcome {
	logCtx.Warn("skipping document",
		"document_id", doc.ID, "filename", doc.Filename, "type", doc.Type, "reason", reason)
	return Outcome{Document: doc, Status: "skipped", Reason: reason}
}

func partName(idx int) string {
	return fmt.Sprintf("part_%03d.pdf", idx)
}
