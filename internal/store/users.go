package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
)

const userColumns = `users.barcode_id, users.name, users.company, users.picture_path,
	users.user_type, users.description, users.initial_checkin_info`

// UpsertUser creates or overwrites a user by barcode. An empty picture path
// keeps the stored picture.
func UpsertUser(ctx context.Context, q sqlx.ExtContext, u model.User) (*model.User, error) {
	if u.BarcodeID == "" {
		return nil, fmt.Errorf("user barcode required: %w", model.ErrInvalidArgument)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO users (barcode_id, name, company, picture_path, user_type, description, initial_checkin_info)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (barcode_id) DO UPDATE SET
		     name = excluded.name,
		     company = excluded.company,
		     picture_path = CASE WHEN excluded.picture_path = '' THEN users.picture_path ELSE excluded.picture_path END,
		     user_type = excluded.user_type,
		     description = excluded.description,
		     initial_checkin_info = excluded.initial_checkin_info`,
		u.BarcodeID, u.Name, u.Company, u.PicturePath, u.UserType, u.Description, u.InitialCheckinInfo,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	return GetUser(ctx, q, u.BarcodeID)
}

// GetUser returns a user by barcode, or nil if it does not exist.
func GetUser(ctx context.Context, q sqlx.QueryerContext, barcodeID string) (*model.User, error) {
	u := &model.User{}
	err := sqlx.GetContext(ctx, q, u,
		`SELECT `+userColumns+` FROM users WHERE barcode_id = ?`, barcodeID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// UserExists reports whether a user with the barcode exists.
func UserExists(ctx context.Context, q sqlx.QueryerContext, barcodeID string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*) FROM users WHERE barcode_id = ?`, barcodeID,
	)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return count > 0, nil
}

// ListUsers returns all users ordered by barcode.
func ListUsers(ctx context.Context, q sqlx.QueryerContext) ([]model.User, error) {
	var users []model.User
	err := sqlx.SelectContext(ctx, q, &users,
		`SELECT `+userColumns+` FROM users ORDER BY barcode_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// SetUserPicture records the stored picture name for a user.
func SetUserPicture(ctx context.Context, q sqlx.ExecerContext, barcodeID, picturePath string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET picture_path = ? WHERE barcode_id = ?`,
		picturePath, barcodeID,
	)
	if err != nil {
		return fmt.Errorf("setting user picture: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %q: %w", barcodeID, model.ErrNotFound)
	}
	return nil
}
