package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// MySQLStore keeps every collection in a single `documents` table with the
// document body in a JSON column. Merge relies on JSON_MERGE_PATCH so a
// partial update never clobbers fields it does not name.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQL returns a MySQLStore bound to the provided database.
func NewMySQL(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

func (s *MySQLStore) Get(ctx context.Context, collection, id string) (Doc, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE collection=? AND id=? LIMIT 1",
		collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var d Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return d, nil
}

func (s *MySQLStore) Set(ctx context.Context, collection, id string, doc Doc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, doc) VALUES (?,?,?) ON DUPLICATE KEY UPDATE doc=VALUES(doc)",
		collection, id, raw)
	return err
}

func (s *MySQLStore) Merge(ctx context.Context, collection, id string, fields Doc) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	// Upsert: a merge against a missing document creates it, the same way
	// a document-store merge write behaves.
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, doc) VALUES (?,?,?) ON DUPLICATE KEY UPDATE doc=JSON_MERGE_PATCH(doc, VALUES(doc))",
		collection, id, raw)
	return err
}

func (s *MySQLStore) QueryByField(ctx context.Context, collection, field, value string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, doc FROM documents WHERE collection=? AND JSON_UNQUOTE(JSON_EXTRACT(doc, ?))=?",
		collection, "$."+field, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *MySQLStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection=? AND id=?", collection, id)
	return err
}

func (s *MySQLStore) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, doc FROM documents WHERE collection=?", collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var d Doc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		out = append(out, Record{ID: id, Doc: d})
	}
	return out, rows.Err()
}
