package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReplaceSerials swaps a project's entire checklist in one transaction:
// prior rows are deleted, the new rows inserted with is_completed false, and
// project progress reset to 0. Re-uploads therefore never merge — the new
// checklist fully replaces the old one.
//
// Callers must guard against empty input themselves (the ingestion engine's
// zero-row no-op); an empty slice here is rejected to make the destructive
// path explicit.
func (s *Store) ReplaceSerials(ctx context.Context, projectID int64, serials []*QAPSerial) error {
	if len(serials) == 0 {
		return fmt.Errorf("store: refusing to replace checklist of project %d with zero rows", projectID)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM qap_serials WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete prior serials: %w", err)
	}

	for _, sr := range serials {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO qap_serials (project_id, serial_number, description, is_completed, remarks)
			VALUES (?, ?, ?, 0, ?)`,
			projectID, sr.SerialNumber, sr.Description, sr.Remarks)
		if err != nil {
			return fmt.Errorf("insert serial %q: %w", sr.SerialNumber, err)
		}
		sr.ProjectID = projectID
		sr.ID, _ = res.LastInsertId()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET progress_percentage = 0 WHERE id = ?`, projectID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}

	return tx.Commit()
}

// Serials returns a project's checklist in insertion order.
func (s *Store) Serials(ctx context.Context, projectID int64) ([]*QAPSerial, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, project_id, serial_number, description, is_completed, remarks, completed_at
		FROM qap_serials WHERE project_id = ? ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var serials []*QAPSerial
	for rows.Next() {
		var sr QAPSerial
		var completedAt sql.NullInt64
		if err := rows.Scan(&sr.ID, &sr.ProjectID, &sr.SerialNumber, &sr.Description,
			&sr.IsCompleted, &sr.Remarks, &completedAt); err != nil {
			return nil, err
		}
		sr.CompletedAt = completedAt.Int64
		serials = append(serials, &sr)
	}
	return serials, rows.Err()
}

// SetSerialCompletion toggles one checklist row, stamps or clears its
// completion time, and persists the recomputed project progress. Returns the
// new progress percentage.
func (s *Store) SetSerialCompletion(ctx context.Context, serialID int64, completed bool, remarks string) (float64, error) {
	var projectID int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT project_id FROM qap_serials WHERE id = ?`, serialID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("serial %d: %w", serialID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	var completedAt any
	if completed {
		completedAt = time.Now().UnixMilli()
	}
	if _, err := s.DB.ExecContext(ctx,
		`UPDATE qap_serials SET is_completed = ?, remarks = ?, completed_at = ?
		WHERE id = ?`, completed, remarks, completedAt, serialID); err != nil {
		return 0, err
	}

	pct, err := s.Progress(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if err := s.SetProgress(ctx, projectID, pct); err != nil {
		return 0, err
	}
	return pct, nil
}

// Progress computes the completion percentage of a project's checklist:
// 100 * completed / total, 0 when the checklist is empty.
func (s *Store) Progress(ctx context.Context, projectID int64) (float64, error) {
	var total, completed int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_completed), 0)
		FROM qap_serials WHERE project_id = ?`, projectID).Scan(&total, &completed)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return 100 * float64(completed) / float64(total), nil
}
