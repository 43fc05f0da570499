package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

// RecordPresence logs a user arriving on or leaving the site.
func (l *Ledger) RecordPresence(ctx context.Context, userID string, kind model.PresenceKind) (*model.PresenceEvent, error) {
	if _, err := model.ParsePresenceKind(string(kind)); err != nil {
		return nil, err
	}

	ev := &model.PresenceEvent{UserID: userID, Kind: kind, UnixTime: l.now()}
	err := store.WithTx(ctx, l.DB, func(tx *sqlx.Tx) error {
		ok, err := store.UserExists(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %q: %w", userID, model.ErrNotFound)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_presence_events (user_id, kind, unix_time) VALUES (?, ?, ?)`,
			ev.UserID, ev.Kind, ev.UnixTime,
		)
		if err != nil {
			return fmt.Errorf("inserting presence event: %w", err)
		}
		if ev.Seq, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("getting presence seq: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// CurrentlyPresentUsers returns the users whose latest presence event is a
// checkin. On equal timestamps a checkin beats a checkout.
func (l *Ledger) CurrentlyPresentUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := sqlx.SelectContext(ctx, l.DB, &users,
		`SELECT `+userColumns+` FROM users
		 JOIN (
		     SELECT user_id, kind,
		            ROW_NUMBER() OVER (
		                PARTITION BY user_id
		                ORDER BY unix_time DESC, kind = 'CHECKIN' DESC, seq DESC
		            ) AS rn
		     FROM user_presence_events
		 ) p ON p.user_id = users.barcode_id
		 WHERE p.rn = 1 AND p.kind = ?
		 ORDER BY users.barcode_id`, model.PresenceCheckin,
	)
	if err != nil {
		return nil, fmt.Errorf("listing present users: %w", err)
	}
	return users, nil
}
