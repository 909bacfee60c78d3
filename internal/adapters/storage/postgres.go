package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps collections as JSONB documents in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to connStr and ensures a table exists for every collection.
func OpenPostgres(ctx context.Context, connStr string, tables []string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	p := &Postgres{pool: pool}

	if err := p.initSchema(ctx, tables); err != nil {
		pool.Close()

		return nil, err
	}

	return p, nil
}

func (p *Postgres) initSchema(ctx context.Context, tables []string) error {
	for _, table := range tables {
		q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			body JSONB NOT NULL
		)`, table)

		if _, err := p.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("creating postgres table %s: %w", table, err)
		}
	}

	return nil
}

// Name implements ports.HealthChecker.
func (p *Postgres) Name() string { return "postgres" }

// Check implements ports.HealthChecker.
func (p *Postgres) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()

	return nil
}

func (p *Postgres) list(ctx context.Context, table string) ([][]byte, error) {
	rows, err := p.pool.Query(ctx, "SELECT body FROM "+table+" ORDER BY seq")
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[[]byte])
}

func (p *Postgres) get(ctx context.Context, table, id string) ([]byte, bool, error) {
	var body []byte

	err := p.pool.QueryRow(ctx, "SELECT body FROM "+table+" WHERE id = $1", id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return body, true, nil
}

func (p *Postgres) insert(ctx context.Context, table string, doc document) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		"INSERT INTO "+table+" (id, body) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING",
		doc.id, string(doc.body))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) update(ctx context.Context, table string, doc document) (bool, error) {
	tag, err := p.pool.Exec(ctx, "UPDATE "+table+" SET body = $2 WHERE id = $1", doc.id, string(doc.body))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) remove(ctx context.Context, table, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) replace(ctx context.Context, table string, docs []document) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, doc := range docs {
			batch.Queue("INSERT INTO "+table+" (id, body) VALUES ($1, $2)", doc.id, string(doc.body))
		}

		return tx.SendBatch(ctx, batch).Close()
	})
}
