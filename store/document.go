package store

import (
	"context"
	"database/sql"
	"time"
)

const documentCols = `id, project_id, type, filename, original_name, path, created_at`

// InsertDocument records a stored artifact and returns its generated id.
func (s *Store) InsertDocument(ctx context.Context, d *Document) (int64, error) {
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO documents (project_id, type, filename, original_name, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ProjectID, d.Type, d.Filename, d.OriginalName, d.Path, d.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

// DocumentsByProject returns all documents of a project in upload order.
func (s *Store) DocumentsByProject(ctx context.Context, projectID int64) ([]*Document, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+documentCols+` FROM documents WHERE project_id = ? ORDER BY id ASC`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// DocumentsByType returns a project's documents of one type, in upload order.
func (s *Store) DocumentsByType(ctx context.Context, projectID int64, docType string) ([]*Document, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+documentCols+` FROM documents
		WHERE project_id = ? AND type = ? ORDER BY id ASC`,
		projectID, docType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Type, &d.Filename,
			&d.OriginalName, &d.Path, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
