package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
)

const itemColumns = `items.barcode_id, items.short_id, items.name, items.picture_path, items.description`

// UpsertItem creates or overwrites an item by barcode. An empty picture path
// keeps the stored picture.
func UpsertItem(ctx context.Context, q sqlx.ExtContext, item model.Item) (*model.Item, error) {
	if item.BarcodeID == "" {
		return nil, fmt.Errorf("item barcode required: %w", model.ErrInvalidArgument)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO items (barcode_id, short_id, name, picture_path, description)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (barcode_id) DO UPDATE SET
		     short_id = excluded.short_id,
		     name = excluded.name,
		     picture_path = CASE WHEN excluded.picture_path = '' THEN items.picture_path ELSE excluded.picture_path END,
		     description = excluded.description`,
		item.BarcodeID, item.ShortID, item.Name, item.PicturePath, item.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting item: %w", err)
	}

	return GetItem(ctx, q, item.BarcodeID)
}

// GetItem returns an item by barcode, or nil if it does not exist.
func GetItem(ctx context.Context, q sqlx.QueryerContext, barcodeID string) (*model.Item, error) {
	item := &model.Item{}
	err := sqlx.GetContext(ctx, q, item,
		`SELECT `+itemColumns+` FROM items WHERE barcode_id = ?`, barcodeID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemExists reports whether an item with the barcode exists.
func ItemExists(ctx context.Context, q sqlx.QueryerContext, barcodeID string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*) FROM items WHERE barcode_id = ?`, barcodeID,
	)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return count > 0, nil
}

// ListItems returns all items ordered by barcode.
func ListItems(ctx context.Context, q sqlx.QueryerContext) ([]model.Item, error) {
	var items []model.Item
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM items ORDER BY barcode_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// SetItemPicture records the stored picture name for an item.
func SetItemPicture(ctx context.Context, q sqlx.ExecerContext, barcodeID, picturePath string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE items SET picture_path = ? WHERE barcode_id = ?`,
		picturePath, barcodeID,
	)
	if err != nil {
		return fmt.Errorf("setting item picture: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %q: %w", barcodeID, model.ErrNotFound)
	}
	return nil
}

// ItemsNotInContainers returns items with no container edge. Vehicle and
// location edges are not considered.
func ItemsNotInContainers(ctx context.Context, q sqlx.QueryerContext) ([]model.Item, error) {
	var items []model.Item
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM items
		 LEFT JOIN containment_edges e ON e.item_id = items.barcode_id AND e.kind = ?
		 WHERE e.item_id IS NULL
		 ORDER BY items.barcode_id`, model.EdgeContainer,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items not in containers: %w", err)
	}
	return items, nil
}
