// Package ledger records tool checkouts and checkins and site presence, and
// answers who currently holds what.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

// Ledger is the custody log. Clock supplies the time stamped on every event.
type Ledger struct {
	DB    *sqlx.DB
	Clock func() time.Time
}

// New returns a ledger using the wall clock.
func New(db *sqlx.DB) *Ledger {
	return &Ledger{DB: db, Clock: time.Now}
}

func (l *Ledger) now() int64 {
	if l.Clock == nil {
		return time.Now().Unix()
	}
	return l.Clock().Unix()
}

const checkoutColumns = `c.checkout_id, c.item_id, c.user_id, c.unix_time, c.override_justification`

// outstanding selects checkouts with no matching checkin.
const outstanding = `SELECT ` + checkoutColumns + ` FROM toolshed_checkouts c
	WHERE NOT EXISTS (SELECT 1 FROM toolshed_checkins ci WHERE ci.checkout_id = c.checkout_id)`

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// RecordCheckout lends an item to a user. An item that is already out can
// only be checked out again with a justification.
func (l *Ledger) RecordCheckout(ctx context.Context, itemID, userID string, justification *string) (*model.Checkout, error) {
	justification = nonEmpty(justification)
	c := &model.Checkout{
		ItemID:                itemID,
		UserID:                userID,
		UnixTime:              l.now(),
		OverrideJustification: justification,
	}

	err := store.WithTx(ctx, l.DB, func(tx *sqlx.Tx) error {
		if err := requireItemAndUser(ctx, tx, itemID, userID); err != nil {
			return err
		}

		var held int
		err := sqlx.GetContext(ctx, tx, &held,
			`SELECT COUNT(*) FROM toolshed_holders WHERE item_id = ?`, itemID,
		)
		if err != nil {
			return fmt.Errorf("checking holder: %w", err)
		}
		if held > 0 && justification == nil {
			return fmt.Errorf("item %q: %w", itemID, model.ErrAlreadyCheckedOut)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO toolshed_checkouts (item_id, user_id, unix_time, override_justification)
			 VALUES (?, ?, ?, ?)`,
			c.ItemID, c.UserID, c.UnixTime, c.OverrideJustification,
		)
		if err != nil {
			return fmt.Errorf("inserting checkout: %w", err)
		}
		if c.CheckoutID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("getting checkout id: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO toolshed_holders (item_id, checkout_id, user_id) VALUES (?, ?, ?)
			 ON CONFLICT (item_id) DO UPDATE SET
			     checkout_id = excluded.checkout_id,
			     user_id = excluded.user_id`,
			c.ItemID, c.CheckoutID, c.UserID,
		)
		if err != nil {
			return fmt.Errorf("setting holder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if justification != nil {
		slog.Info("checkout overridden", "item", itemID, "user", userID, "checkout", c.CheckoutID)
	}
	return c, nil
}

// CheckinRequest describes a returned item. CheckoutID may be omitted, in
// which case the item's single outstanding checkout is closed.
type CheckinRequest struct {
	CheckoutID    *int64
	ItemID        string
	UserID        string
	Justification *string
	Description   *string
}

// RecordCheckin closes a checkout.
func (l *Ledger) RecordCheckin(ctx context.Context, req CheckinRequest) (*model.Checkin, error) {
	ci := &model.Checkin{
		ItemID:                req.ItemID,
		UserID:                req.UserID,
		UnixTime:              l.now(),
		OverrideJustification: nonEmpty(req.Justification),
		Description:           nonEmpty(req.Description),
	}

	err := store.WithTx(ctx, l.DB, func(tx *sqlx.Tx) error {
		if err := requireItemAndUser(ctx, tx, req.ItemID, req.UserID); err != nil {
			return err
		}

		checkout, err := resolveCheckout(ctx, tx, req)
		if err != nil {
			return err
		}
		ci.CheckoutID = checkout.CheckoutID

		res, err := tx.ExecContext(ctx,
			`INSERT INTO toolshed_checkins
			     (checkout_id, item_id, user_id, unix_time, override_justification, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			ci.CheckoutID, ci.ItemID, ci.UserID, ci.UnixTime, ci.OverrideJustification, ci.Description,
		)
		if err != nil {
			return fmt.Errorf("inserting checkin: %w", err)
		}
		if ci.CheckinID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("getting checkin id: %w", err)
		}

		return refreshHolder(ctx, tx, req.ItemID)
	})
	if err != nil {
		return nil, err
	}
	return ci, nil
}

func requireItemAndUser(ctx context.Context, q sqlx.QueryerContext, itemID, userID string) error {
	ok, err := store.ItemExists(ctx, q, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("item %q: %w", itemID, model.ErrNotFound)
	}

	ok, err = store.UserExists(ctx, q, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %q: %w", userID, model.ErrNotFound)
	}
	return nil
}

// resolveCheckout finds the open checkout a checkin refers to.
func resolveCheckout(ctx context.Context, q sqlx.QueryerContext, req CheckinRequest) (*model.Checkout, error) {
	if req.CheckoutID == nil {
		var open []model.Checkout
		err := sqlx.SelectContext(ctx, q, &open, outstanding+` AND c.item_id = ?`, req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("finding outstanding checkout: %w", err)
		}
		switch len(open) {
		case 0:
			return nil, fmt.Errorf("no outstanding checkout for item %q: %w", req.ItemID, model.ErrNotFound)
		case 1:
			return &open[0], nil
		default:
			return nil, fmt.Errorf("%d outstanding checkouts for item %q: %w", len(open), req.ItemID, model.ErrAmbiguous)
		}
	}

	c := &model.Checkout{}
	err := sqlx.GetContext(ctx, q, c,
		`SELECT `+checkoutColumns+` FROM toolshed_checkouts c WHERE c.checkout_id = ?`, *req.CheckoutID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checkout %d: %w", *req.CheckoutID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting checkout: %w", err)
	}
	if c.ItemID != req.ItemID {
		return nil, fmt.Errorf("checkout %d is for item %q, not %q: %w",
			c.CheckoutID, c.ItemID, req.ItemID, model.ErrInvalidArgument)
	}

	var closed int
	err = sqlx.GetContext(ctx, q, &closed,
		`SELECT COUNT(*) FROM toolshed_checkins WHERE checkout_id = ?`, c.CheckoutID,
	)
	if err != nil {
		return nil, fmt.Errorf("checking checkin: %w", err)
	}
	if closed > 0 {
		return nil, fmt.Errorf("checkout %d already checked in: %w", c.CheckoutID, model.ErrConflict)
	}
	return c, nil
}

// refreshHolder points the holder row at the item's latest outstanding
// checkout, or removes it if there is none.
func refreshHolder(ctx context.Context, tx *sqlx.Tx, itemID string) error {
	latest, err := outstandingFor(ctx, tx, itemID)
	if err != nil {
		return err
	}

	if latest == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM toolshed_holders WHERE item_id = ?`, itemID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO toolshed_holders (item_id, checkout_id, user_id) VALUES (?, ?, ?)
			 ON CONFLICT (item_id) DO UPDATE SET
			     checkout_id = excluded.checkout_id,
			     user_id = excluded.user_id`,
			itemID, latest.CheckoutID, latest.UserID,
		)
	}
	if err != nil {
		return fmt.Errorf("refreshing holder: %w", err)
	}
	return nil
}

func outstandingFor(ctx context.Context, q sqlx.QueryerContext, itemID string) (*model.Checkout, error) {
	c := &model.Checkout{}
	err := sqlx.GetContext(ctx, q, c,
		outstanding+` AND c.item_id = ? ORDER BY c.unix_time DESC, c.checkout_id DESC LIMIT 1`, itemID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting outstanding checkout: %w", err)
	}
	return c, nil
}

// OutstandingCheckoutFor returns the latest checkout of the item that has not
// been checked in, or nil.
func (l *Ledger) OutstandingCheckoutFor(ctx context.Context, itemID string) (*model.Checkout, error) {
	return outstandingFor(ctx, l.DB, itemID)
}

const itemColumns = `items.barcode_id, items.short_id, items.name, items.picture_path, items.description`

const userColumns = `users.barcode_id, users.name, users.company, users.picture_path,
	users.user_type, users.description, users.initial_checkin_info`

// OutstandingCheckoutsByUser returns the items the user has checked out and
// not returned. An item whose checkout was overridden by another user still
// counts until this user's checkout is checked in.
func (l *Ledger) OutstandingCheckoutsByUser(ctx context.Context, userID string) ([]model.Item, error) {
	var items []model.Item
	err := sqlx.SelectContext(ctx, l.DB, &items,
		`SELECT `+itemColumns+` FROM items
		 WHERE items.barcode_id IN (SELECT c.item_id FROM (`+outstanding+`) c WHERE c.user_id = ?)
		 ORDER BY items.barcode_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing outstanding checkouts: %w", err)
	}
	return items, nil
}

// UsersWithOutstandingCheckouts returns every user holding at least one
// outstanding checkout.
func (l *Ledger) UsersWithOutstandingCheckouts(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := sqlx.SelectContext(ctx, l.DB, &users,
		`SELECT `+userColumns+` FROM users
		 WHERE users.barcode_id IN (SELECT c.user_id FROM (`+outstanding+`) c)
		 ORDER BY users.barcode_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users with checkouts: %w", err)
	}
	return users, nil
}

// History returns every checkout of an item with its checkin, newest first.
func (l *Ledger) History(ctx context.Context, itemID string) ([]model.LedgerEntry, error) {
	ok, err := store.ItemExists(ctx, l.DB, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("item %q: %w", itemID, model.ErrNotFound)
	}

	var checkouts []model.Checkout
	err = sqlx.SelectContext(ctx, l.DB, &checkouts,
		`SELECT `+checkoutColumns+` FROM toolshed_checkouts c
		 WHERE c.item_id = ? ORDER BY c.unix_time DESC, c.checkout_id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing checkouts: %w", err)
	}

	var checkins []model.Checkin
	err = sqlx.SelectContext(ctx, l.DB, &checkins,
		`SELECT checkin_id, checkout_id, item_id, user_id, unix_time, override_justification, description
		 FROM toolshed_checkins WHERE item_id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing checkins: %w", err)
	}

	byCheckout := make(map[int64]*model.Checkin, len(checkins))
	for i := range checkins {
		byCheckout[checkins[i].CheckoutID] = &checkins[i]
	}

	entries := make([]model.LedgerEntry, 0, len(checkouts))
	for _, c := range checkouts {
		entries = append(entries, model.LedgerEntry{Checkout: c, Checkin: byCheckout[c.CheckoutID]})
	}
	return entries, nil
}
