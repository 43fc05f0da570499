// Package audit runs physical inventory audits: an audit is opened, items are
// scanned with an observed status, and the result is reconciled against the
// item catalogue and the current containment.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

// Engine records audits and observations.
type Engine struct {
	DB    *sqlx.DB
	Clock func() time.Time
}

// New returns an engine using the wall clock.
func New(db *sqlx.DB) *Engine {
	return &Engine{DB: db, Clock: time.Now}
}

func (e *Engine) now() int64 {
	if e.Clock == nil {
		return time.Now().Unix()
	}
	return e.Clock().Unix()
}

const eventColumns = `id, start_unix_time, complete_unix_time, notes`

// StartAudit opens a new audit.
func (e *Engine) StartAudit(ctx context.Context) (*model.InventoryEvent, error) {
	ev := &model.InventoryEvent{StartUnixTime: e.now()}
	res, err := e.DB.ExecContext(ctx,
		`INSERT INTO inventory_events (start_unix_time) VALUES (?)`, ev.StartUnixTime,
	)
	if err != nil {
		return nil, fmt.Errorf("starting audit: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting audit id: %w", err)
	}
	return ev, nil
}

// CompleteAudit closes an audit. Completing a closed audit moves its
// completion time to now and replaces the notes.
func (e *Engine) CompleteAudit(ctx context.Context, id int64, notes *string) (*model.InventoryEvent, error) {
	var ev *model.InventoryEvent
	err := store.WithTx(ctx, e.DB, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE inventory_events SET complete_unix_time = ?, notes = ? WHERE id = ?`,
			e.now(), notes, id,
		)
		if err != nil {
			return fmt.Errorf("completing audit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("audit %d: %w", id, model.ErrNotFound)
		}

		ev, err = getAudit(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func getAudit(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.InventoryEvent, error) {
	ev := &model.InventoryEvent{}
	err := sqlx.GetContext(ctx, q, ev,
		`SELECT `+eventColumns+` FROM inventory_events WHERE id = ?`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("audit %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting audit: %w", err)
	}
	return ev, nil
}

// GetAudit returns an audit by id.
func (e *Engine) GetAudit(ctx context.Context, id int64) (*model.InventoryEvent, error) {
	return getAudit(ctx, e.DB, id)
}

// ListAudits returns all audits, newest first.
func (e *Engine) ListAudits(ctx context.Context) ([]model.InventoryEvent, error) {
	var events []model.InventoryEvent
	err := sqlx.SelectContext(ctx, e.DB, &events,
		`SELECT `+eventColumns+` FROM inventory_events ORDER BY start_unix_time DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audits: %w", err)
	}
	return events, nil
}

// RecordObservation stores what was seen when an item was scanned. Scanning
// the same item again in the same audit replaces the earlier observation.
// The item does not have to be catalogued yet.
func (e *Engine) RecordObservation(ctx context.Context, id int64, itemID string, status model.InventoryStatus, notes *string) (*model.InventoriedItem, error) {
	if _, err := model.ParseInventoryStatus(string(status)); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id required: %w", model.ErrInvalidArgument)
	}

	obs := &model.InventoriedItem{InventoryID: id, ItemID: itemID, Status: status, Notes: notes}
	err := store.WithTx(ctx, e.DB, func(tx *sqlx.Tx) error {
		if _, err := getAudit(ctx, tx, id); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO inventoried_items (inventory_id, item_id, status, notes) VALUES (?, ?, ?, ?)
			 ON CONFLICT (inventory_id, item_id) DO UPDATE SET
			     status = excluded.status,
			     notes = excluded.notes`,
			obs.InventoryID, obs.ItemID, obs.Status, obs.Notes,
		)
		if err != nil {
			return fmt.Errorf("recording observation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// GetObservation returns the observation of an item in an audit, or nil if
// the item has not been scanned.
func (e *Engine) GetObservation(ctx context.Context, id int64, itemID string) (*model.InventoriedItem, error) {
	if _, err := getAudit(ctx, e.DB, id); err != nil {
		return nil, err
	}

	obs := &model.InventoriedItem{}
	err := sqlx.GetContext(ctx, e.DB, obs,
		`SELECT inventory_id, item_id, status, notes FROM inventoried_items
		 WHERE inventory_id = ? AND item_id = ?`, id, itemID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting observation: %w", err)
	}
	return obs, nil
}
