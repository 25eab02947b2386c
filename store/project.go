package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const projectCols = `id, po_number, opa_name, qa_field_unit, project_classification,
	firm_name, po_date, main_equipment, order_value, engineer_id, jcqao_id,
	progress_percentage, is_closed, is_closure_requested, is_closure_approved,
	closure_request_remarks, created_at`

// InsertProject adds a project and returns its generated id.
func (s *Store) InsertProject(ctx context.Context, p *Project) (int64, error) {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO projects (po_number, opa_name, qa_field_unit, project_classification,
		firm_name, po_date, main_equipment, order_value, engineer_id, jcqao_id,
		progress_percentage, is_closed, is_closure_requested, is_closure_approved,
		closure_request_remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PONumber, p.OPAName, p.QAFieldUnit, p.ProjectClassification,
		p.FirmName, nullInt(p.PODate), p.MainEquipment, p.OrderValue,
		nullInt(p.EngineerID), nullInt(p.JCQAOID),
		p.ProgressPercentage, p.IsClosed, p.IsClosureRequested, p.IsClosureApproved,
		p.ClosureRequestRemarks, p.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// Project retrieves a project by id.
func (s *Store) Project(ctx context.Context, id int64) (*Project, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = ?`, id)

	var p Project
	var poDate, engineerID, jcqaoID sql.NullInt64
	err := row.Scan(&p.ID, &p.PONumber, &p.OPAName, &p.QAFieldUnit, &p.ProjectClassification,
		&p.FirmName, &poDate, &p.MainEquipment, &p.OrderValue, &engineerID, &jcqaoID,
		&p.ProgressPercentage, &p.IsClosed, &p.IsClosureRequested, &p.IsClosureApproved,
		&p.ClosureRequestRemarks, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p.PODate = poDate.Int64
	p.EngineerID = engineerID.Int64
	p.JCQAOID = jcqaoID.Int64
	return &p, nil
}

// SetProgress persists a recomputed progress percentage.
func (s *Store) SetProgress(ctx context.Context, projectID int64, pct float64) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE projects SET progress_percentage = ? WHERE id = ?`, pct, projectID)
	return err
}

// RequestClosure marks a project as closure-requested with optional remarks.
func (s *Store) RequestClosure(ctx context.Context, projectID int64, remarks string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE projects SET is_closure_requested = 1, closure_request_remarks = ?
		WHERE id = ?`, remarks, projectID)
	if err != nil {
		return err
	}
	return requireRow(res, projectID)
}

// CloseProject archives a project: closed flag set, both closure-workflow
// flags cleared, engineer detached so the project leaves the active list.
func (s *Store) CloseProject(ctx context.Context, projectID int64) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE projects SET is_closed = 1, is_closure_requested = 0,
		is_closure_approved = 0, engineer_id = NULL
		WHERE id = ?`, projectID)
	if err != nil {
		return err
	}
	return requireRow(res, projectID)
}

// ReopenProject reverses closure. Only the three flags flip; previously
// generated report artifacts and knowledge-bank entries are kept.
func (s *Store) ReopenProject(ctx context.Context, projectID int64) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE projects SET is_closed = 0, is_closure_requested = 0,
		is_closure_approved = 0
		WHERE id = ?`, projectID)
	if err != nil {
		return err
	}
	return requireRow(res, projectID)
}

func requireRow(res sql.Result, projectID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	return nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
