// Package closure orchestrates the project closure lifecycle: approving a
// closure request compiles the closure report, records it against the
// project, archives it into the knowledge bank, and finally flips the
// project's closed state.
//
// Finalize and Archive are split on purpose. Finalize performs everything
// that must succeed before a caller can be told the closure went through;
// Archive flips the persistent closed flag afterwards, so a crash between
// the two leaves a reopenable project with a valid report rather than a
// closed project without one.
package closure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veridoc/qatrack/report"
	"github.com/veridoc/qatrack/store"
)

// Store is the persistence surface the orchestrator writes to.
type Store interface {
	Project(ctx context.Context, id int64) (*store.Project, error)
	InsertDocument(ctx context.Context, d *store.Document) (int64, error)
	InsertKnowledgeItem(ctx context.Context, k *store.KnowledgeBankItem) (int64, error)
	RequestClosure(ctx context.Context, projectID int64, remarks string) error
	CloseProject(ctx context.Context, projectID int64) error
	ReopenProject(ctx context.Context, projectID int64) error
}

// Compiler produces the closure report artifact.
type Compiler interface {
	Compile(ctx context.Context, projectID int64) (*report.Result, error)
}

// Config configures an Orchestrator.
type Config struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator drives closure state transitions.
type Orchestrator struct {
	st       Store
	compiler Compiler
	logger   *slog.Logger
}

// New creates an Orchestrator over st using compiler to build reports.
func New(st Store, compiler Compiler, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{st: st, compiler: compiler, logger: cfg.Logger}
}

// Request marks a project as awaiting closure approval.
func (o *Orchestrator) Request(ctx context.Context, projectID int64, remarks string) error {
	if err := o.st.RequestClosure(ctx, projectID, remarks); err != nil {
		return err
	}
	o.logger.Info("closure requested", "project_id", projectID)
	return nil
}

// Finalize compiles the closure report and records it both as a project
// document and as a knowledge bank entry attributed to the approving user.
// The project is NOT closed here; call Archive once the caller has been
// answered.
func (o *Orchestrator) Finalize(ctx context.Context, projectID, approvedBy int64) (*report.Result, error) {
	p, err := o.st.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	res, err := o.compiler.Compile(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("closure: compile report: %w", err)
	}

	now := time.Now().UnixMilli()
	if _, err := o.st.InsertDocument(ctx, &store.Document{
		ProjectID:    projectID,
		Type:         store.DocProjectReport,
		Filename:     res.Filename,
		OriginalName: res.Filename,
		Path:         res.RelativePath,
		CreatedAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("closure: record report document: %w", err)
	}

	if _, err := o.st.InsertKnowledgeItem(ctx, &store.KnowledgeBankItem{
		Category:     "reports",
		Title:        fmt.Sprintf("Closure Report - %s (%s)", p.OPAName, p.PONumber),
		Filename:     res.Filename,
		OriginalName: res.Filename,
		Path:         res.RelativePath,
		UploadedBy:   approvedBy,
		CreatedAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("closure: archive to knowledge bank: %w", err)
	}

	o.logger.Info("closure finalized", "project_id", projectID, "report", res.Filename)
	return res, nil
}

// Archive flips the project into its closed state: closed set, closure
// flags cleared, engineer detached. Safe to call only after Finalize
// succeeded for the same project.
func (o *Orchestrator) Archive(ctx context.Context, projectID int64) error {
	if err := o.st.CloseProject(ctx, projectID); err != nil {
		return err
	}
	o.logger.Info("project archived", "project_id", projectID)
	return nil
}

// Reopen clears the closed and closure-request state of a project. The
// engineer assignment removed at close time is not restored; reassignment
// is a separate step.
func (o *Orchestrator) Reopen(ctx context.Context, projectID int64) error {
	if err := o.st.ReopenProject(ctx, projectID); err != nil {
		return err
	}
	o.logger.Info("project reopened", "project_id", projectID)
	return nil
}
