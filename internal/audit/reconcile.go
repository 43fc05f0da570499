package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

// The derived queries read containment as it is now, not as it was when an
// item was scanned.

const itemColumns = `items.barcode_id, items.short_id, items.name, items.picture_path, items.description`

// observations selects the observation rows of the audit bound to the first
// placeholder. Barcodes missing from the catalogue are included.
const observations = `SELECT ii.inventory_id, ii.item_id, ii.status, ii.notes
	FROM inventoried_items ii`

// selectRows checks the audit exists and runs query into dest in one transaction.
func (e *Engine) selectRows(ctx context.Context, id int64, dest any, what, query string, args ...any) error {
	return store.WithTx(ctx, e.DB, func(tx *sqlx.Tx) error {
		if _, err := getAudit(ctx, tx, id); err != nil {
			return err
		}
		if err := sqlx.SelectContext(ctx, tx, dest, query, args...); err != nil {
			return fmt.Errorf("listing %s: %w", what, err)
		}
		return nil
	})
}

// ItemsNotYetScanned returns catalogued items with no observation in the audit.
func (e *Engine) ItemsNotYetScanned(ctx context.Context, id int64) ([]model.Item, error) {
	items := []model.Item{}
	err := e.selectRows(ctx, id, &items, "unscanned items",
		`SELECT `+itemColumns+` FROM items
		 WHERE NOT EXISTS (
		     SELECT 1 FROM inventoried_items ii
		     WHERE ii.inventory_id = ? AND ii.item_id = items.barcode_id
		 )
		 ORDER BY items.barcode_id`, id,
	)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (e *Engine) selectObservations(ctx context.Context, id int64, what, query string, args ...any) ([]model.InventoriedItem, error) {
	obs := []model.InventoriedItem{}
	if err := e.selectRows(ctx, id, &obs, what, query, args...); err != nil {
		return nil, err
	}
	return obs, nil
}

// ItemsScannedOutsideAnyContainer returns the observations of items that are
// not in a container.
func (e *Engine) ItemsScannedOutsideAnyContainer(ctx context.Context, id int64) ([]model.InventoriedItem, error) {
	return e.selectObservations(ctx, id, "scanned items outside containers",
		observations+`
		 LEFT JOIN containment_edges e ON e.item_id = ii.item_id AND e.kind = ?
		 WHERE ii.inventory_id = ? AND e.item_id IS NULL
		 ORDER BY ii.item_id`, model.EdgeContainer, id,
	)
}

// ItemsScannedInContainer returns the observations of items directly inside containerID.
func (e *Engine) ItemsScannedInContainer(ctx context.Context, id int64, containerID string) ([]model.InventoriedItem, error) {
	return e.selectObservations(ctx, id, "scanned items in container",
		observations+`
		 JOIN containment_edges e ON e.item_id = ii.item_id AND e.kind = ?
		 WHERE ii.inventory_id = ? AND e.holder_id = ?
		 ORDER BY ii.item_id`, model.EdgeContainer, id, containerID,
	)
}

// ItemsNotGood returns the observations with any status other than GOOD.
func (e *Engine) ItemsNotGood(ctx context.Context, id int64) ([]model.InventoriedItem, error) {
	return e.selectObservations(ctx, id, "items not good",
		observations+`
		 WHERE ii.inventory_id = ? AND ii.status <> ?
		 ORDER BY ii.item_id`, id, model.StatusGood,
	)
}

// Summary counts the observations of an audit per status.
func (e *Engine) Summary(ctx context.Context, id int64) (*model.Reconciliation, error) {
	rec := &model.Reconciliation{
		InventoryID: id,
		ByStatus:    make(map[model.InventoryStatus]int, len(model.InventoryStatuses)),
	}
	for _, st := range model.InventoryStatuses {
		rec.ByStatus[st] = 0
	}

	err := store.WithTx(ctx, e.DB, func(tx *sqlx.Tx) error {
		ev, err := getAudit(ctx, tx, id)
		if err != nil {
			return err
		}
		rec.State = ev.State()

		var statuses []model.InventoryStatus
		err = sqlx.SelectContext(ctx, tx, &statuses,
			`SELECT status FROM inventoried_items WHERE inventory_id = ?`, id,
		)
		if err != nil {
			return fmt.Errorf("listing observations: %w", err)
		}
		for _, st := range statuses {
			switch st {
			case model.StatusGood, model.StatusMissing, model.StatusWrongLocation,
				model.StatusNewItem, model.StatusDamaged, model.StatusOther:
				rec.ByStatus[st]++
			default:
				return fmt.Errorf("audit %d: %w", id, model.ErrInvalidStatus)
			}
			rec.Scanned++
		}

		err = sqlx.GetContext(ctx, tx, &rec.NotYetScanned,
			`SELECT COUNT(*) FROM items
			 WHERE NOT EXISTS (
			     SELECT 1 FROM inventoried_items ii
			     WHERE ii.inventory_id = ? AND ii.item_id = items.barcode_id
			 )`, id,
		)
		if err != nil {
			return fmt.Errorf("counting unscanned items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
