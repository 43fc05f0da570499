package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/containment"
	"github.com/erazemk/orodjarna/internal/model"
)

// SetEdge places itemID in holderID, replacing any existing edge of the same
// kind for the item. Both ids must name existing items. Edges that would
// close a loop across any edge kind are rejected.
func SetEdge(ctx context.Context, q sqlx.ExtContext, kind model.EdgeKind, itemID, holderID string) error {
	if _, err := model.ParseEdgeKind(string(kind)); err != nil {
		return err
	}
	if itemID == "" || holderID == "" {
		return fmt.Errorf("item and holder ids required: %w", model.ErrInvalidArgument)
	}

	for _, id := range []string{itemID, holderID} {
		ok, err := ItemExists(ctx, q, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("item %q: %w", id, model.ErrNotFound)
		}
	}

	cycle, err := containment.WouldCycle(ctx, q, itemID, holderID)
	if err != nil {
		return err
	}
	if cycle {
		return fmt.Errorf("placing %q in %q: %w", itemID, holderID, model.ErrCycleDetected)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO containment_edges (kind, item_id, holder_id) VALUES (?, ?, ?)
		 ON CONFLICT (kind, item_id) DO UPDATE SET holder_id = excluded.holder_id`,
		kind, itemID, holderID,
	)
	if err != nil {
		return fmt.Errorf("setting %s edge: %w", kind, err)
	}
	return nil
}

// SetEdges places every item in holderID within one transaction.
func SetEdges(ctx context.Context, db *sqlx.DB, kind model.EdgeKind, holderID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("at least one item id required: %w", model.ErrInvalidArgument)
	}

	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, itemID := range itemIDs {
			if err := SetEdge(ctx, tx, kind, itemID, holderID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveEdge deletes the edge if it exists. Removing a missing edge is not an error.
func RemoveEdge(ctx context.Context, q sqlx.ExecerContext, kind model.EdgeKind, itemID, holderID string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM containment_edges WHERE kind = ? AND item_id = ? AND holder_id = ?`,
		kind, itemID, holderID,
	)
	if err != nil {
		return fmt.Errorf("removing %s edge: %w", kind, err)
	}
	return nil
}

// ItemsHeldBy returns the items directly held by holderID through edges of the given kind.
func ItemsHeldBy(ctx context.Context, q sqlx.QueryerContext, kind model.EdgeKind, holderID string) ([]model.Item, error) {
	var items []model.Item
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM items
		 JOIN containment_edges e ON e.item_id = items.barcode_id
		 WHERE e.kind = ? AND e.holder_id = ?
		 ORDER BY items.barcode_id`, kind, holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items in %s: %w", kind, err)
	}
	return items, nil
}
