package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// document is one stored record: its identifier and JSON body.
type document struct {
	id   string
	body []byte
}

// backend is a SQL store that keeps JSON documents in per-collection tables
// ordered by an insertion sequence.
type backend interface {
	list(ctx context.Context, table string) ([][]byte, error)
	get(ctx context.Context, table, id string) ([]byte, bool, error)
	insert(ctx context.Context, table string, doc document) (bool, error)
	update(ctx context.Context, table string, doc document) (bool, error)
	remove(ctx context.Context, table, id string) (bool, error)
	replace(ctx context.Context, table string, docs []document) error
}

// Documents is a repository that serializes entities as JSON into a SQL backend.
type Documents[T domain.Entity] struct {
	db     backend
	table  string
	entity string
}

func newDocuments[T domain.Entity](db backend, table, entity string) *Documents[T] {
	return &Documents[T]{db: db, table: table, entity: entity}
}

// List returns every record in insertion order.
func (d *Documents[T]) List(ctx context.Context) ([]T, error) {
	bodies, err := d.db.list(ctx, d.table)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.table, err)
	}

	out := make([]T, 0, len(bodies))

	for _, body := range bodies {
		item, err := d.decode(body)
		if err != nil {
			return nil, err
		}

		out = append(out, item)
	}

	return out, nil
}

// Get retrieves a record by its identifier.
func (d *Documents[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	body, found, err := d.db.get(ctx, d.table, id)
	if err != nil {
		return zero, fmt.Errorf("loading %s %q: %w", d.entity, id, err)
	}

	if !found {
		return zero, domain.NewNotFoundError(d.entity, id)
	}

	return d.decode(body)
}

// Create stores a new record.
func (d *Documents[T]) Create(ctx context.Context, item T) error {
	doc, err := d.encode(item)
	if err != nil {
		return err
	}

	inserted, err := d.db.insert(ctx, d.table, doc)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", d.entity, err)
	}

	if !inserted {
		return domain.NewConflictError(d.entity, fmt.Sprintf("id %q already exists", doc.id))
	}

	return nil
}

// Update replaces an existing record.
func (d *Documents[T]) Update(ctx context.Context, item T) error {
	doc, err := d.encode(item)
	if err != nil {
		return err
	}

	updated, err := d.db.update(ctx, d.table, doc)
	if err != nil {
		return fmt.Errorf("updating %s: %w", d.entity, err)
	}

	if !updated {
		return domain.NewNotFoundError(d.entity, doc.id)
	}

	return nil
}

// Delete removes a record by its identifier.
func (d *Documents[T]) Delete(ctx context.Context, id string) error {
	removed, err := d.db.remove(ctx, d.table, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", d.entity, err)
	}

	if !removed {
		return domain.NewNotFoundError(d.entity, id)
	}

	return nil
}

// ReplaceAll swaps the whole collection in one transaction.
func (d *Documents[T]) ReplaceAll(ctx context.Context, items []T) error {
	docs := make([]document, 0, len(items))

	for _, item := range items {
		doc, err := d.encode(item)
		if err != nil {
			return err
		}

		docs = append(docs, doc)
	}

	if err := d.db.replace(ctx, d.table, docs); err != nil {
		return fmt.Errorf("replacing %s: %w", d.table, err)
	}

	return nil
}

func (d *Documents[T]) encode(item T) (document, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return document{}, fmt.Errorf("encoding %s: %w", d.entity, err)
	}

	return document{id: item.EntityID(), body: body}, nil
}

func (d *Documents[T]) decode(body []byte) (T, error) {
	var item T

	if err := json.Unmarshal(body, &item); err != nil {
		return item, fmt.Errorf("decoding %s: %w", d.entity, err)
	}

	return item, nil
}
