package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLite keeps collections in a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures a
// table exists for every collection. Use ":memory:" in tests.
func OpenSQLite(ctx context.Context, path string, tables []string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}

	if err := s.createSchema(ctx, tables); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	return s, nil
}

func (s *SQLite) createSchema(ctx context.Context, tables []string) error {
	for _, table := range tables {
		schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			body TEXT NOT NULL
		)`, table)

		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *SQLite) Name() string { return "sqlite" }

// Check implements ports.HealthChecker.
func (s *SQLite) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) list(ctx context.Context, table string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT body FROM "+table+" ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bodies [][]byte

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}

		bodies = append(bodies, []byte(body))
	}

	return bodies, rows.Err()
}

func (s *SQLite) get(ctx context.Context, table, id string) ([]byte, bool, error) {
	var body string

	err := s.db.QueryRowContext(ctx, "SELECT body FROM "+table+" WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return []byte(body), true, nil
}

func (s *SQLite) insert(ctx context.Context, table string, doc document) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO "+table+" (id, body) VALUES (?, ?) ON CONFLICT (id) DO NOTHING",
		doc.id, string(doc.body))
	if err != nil {
		return false, err
	}

	return affected(res)
}

func (s *SQLite) update(ctx context.Context, table string, doc document) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE "+table+" SET body = ? WHERE id = ?", string(doc.body), doc.id)
	if err != nil {
		return false, err
	}

	return affected(res)
}

func (s *SQLite) remove(ctx context.Context, table, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, err
	}

	return affected(res)
}

func (s *SQLite) replace(ctx context.Context, table string, docs []document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return err
	}

	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO "+table+" (id, body) VALUES (?, ?)", doc.id, string(doc.body)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
