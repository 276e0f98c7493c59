package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"pantry-api/internal/database"
	"pantry-api/internal/model"
)

var inventoryColumns = []string{"id", "name", "amount", "unit"}

// SQLInventoryRepository implements InventoryRepository on any supported dialect.
type SQLInventoryRepository struct {
	t table[model.InventoryItem]
}

// NewSQLInventoryRepository creates an inventory repository on the shared pool.
func NewSQLInventoryRepository(pool *database.Pool) *SQLInventoryRepository {
	return &SQLInventoryRepository{
		t: newTable(pool, database.InventoryTable, inventoryColumns, scanInventoryItem),
	}
}

func scanInventoryItem(row rowScanner) (*model.InventoryItem, error) {
	var (
		item   model.InventoryItem
		amount sql.NullFloat64
		unit   sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Name, &amount, &unit); err != nil {
		return nil, err
	}
	item.Amount = nullFloat(amount)
	item.Unit = nullString(unit)
	return &item, nil
}

// List returns every item, newest first.
func (r *SQLInventoryRepository) List(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := r.t.list(ctx, nil)
	return items, wrap(ErrQueryFailed, "list inventory", err)
}

// Get returns one item.
func (r *SQLInventoryRepository) Get(ctx context.Context, id int64) (*model.InventoryItem, error) {
	item, err := r.t.get(ctx, id)
	return item, wrap(ErrQueryFailed, "get inventory item", err)
}

// Create inserts an item.
func (r *SQLInventoryRepository) Create(ctx context.Context, f model.InventoryFields) (*model.InventoryItem, error) {
	q := r.t.sql.Insert(database.InventoryTable).
		Columns("name", "amount", "unit").
		Values(f.Name, f.Amount, f.Unit)

	item, err := r.t.insert(ctx, q)
	return item, wrap(ErrWriteFailed, "create inventory item", err)
}

// Update replaces name, amount and unit.
func (r *SQLInventoryRepository) Update(ctx context.Context, id int64, f model.InventoryFields) (*model.InventoryItem, error) {
	q := r.t.sql.Update(database.InventoryTable).
		Set("name", f.Name).
		Set("amount", f.Amount).
		Set("unit", f.Unit).
		Where(sq.Eq{"id": id})

	item, err := r.t.update(ctx, id, q)
	return item, wrap(ErrWriteFailed, "update inventory item", err)
}

// Delete removes an item.
func (r *SQLInventoryRepository) Delete(ctx context.Context, id int64) error {
	return wrap(ErrWriteFailed, "delete inventory item", r.t.delete(ctx, id))
}

// Count returns the number of items.
func (r *SQLInventoryRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.t.count(ctx)
	return n, wrap(ErrQueryFailed, "count inventory", err)
}

var _ InventoryRepository = (*SQLInventoryRepository)(nil)
