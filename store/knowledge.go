package store

import (
	"context"
	"time"
)

// InsertKnowledgeItem records an archival entry and returns its id.
func (s *Store) InsertKnowledgeItem(ctx context.Context, k *KnowledgeBankItem) (int64, error) {
	if k.CreatedAt == 0 {
		k.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO knowledge_bank_items (category, title, filename, original_name, path, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.Category, k.Title, k.Filename, k.OriginalName, k.Path,
		nullInt(k.UploadedBy), k.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	k.ID = id
	return id, nil
}

// KnowledgeItems returns archival entries, newest first, optionally filtered
// by category ("" = all).
func (s *Store) KnowledgeItems(ctx context.Context, category string) ([]*KnowledgeBankItem, error) {
	q := `SELECT id, category, title, filename, original_name, path,
		COALESCE(uploaded_by, 0), created_at
		FROM knowledge_bank_items`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*KnowledgeBankItem
	for rows.Next() {
		var k KnowledgeBankItem
		if err := rows.Scan(&k.ID, &k.Category, &k.Title, &k.Filename,
			&k.OriginalName, &k.Path, &k.UploadedBy, &k.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &k)
	}
	return items, rows.Err()
}
