package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqliteSessionStore uses the sessions table created by db.InitDB.
type sqliteSessionStore struct {
	db *sql.DB
}

func NewSQLiteSessionStore(db *sql.DB) SessionStore {
	return &sqliteSessionStore{db: db}
}

func (r *sqliteSessionStore) Read(ctx context.Context, name string) ([]byte, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, "SELECT document FROM sessions WHERE name = ?", name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", name, err)
	}
	return []byte(doc), nil
}

func (r *sqliteSessionStore) Write(ctx context.Context, name string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (name, document) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
		name, string(data))
	if err != nil {
		return fmt.Errorf("save session %s: %w", name, err)
	}
	return nil
}

func (r *sqliteSessionStore) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM sessions ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan session name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *sqliteSessionStore) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
