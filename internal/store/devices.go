package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
)

// AnnounceDevice records a scanner handset. Announcing a known device clears
// its user binding so it can be paired again.
func AnnounceDevice(ctx context.Context, q sqlx.ExecerContext, androidID string) error {
	if androidID == "" {
		return fmt.Errorf("android id required: %w", model.ErrInvalidArgument)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO registered_devices (android_id) VALUES (?)
		 ON CONFLICT (android_id) DO UPDATE SET barcode_id = NULL`,
		androidID,
	)
	if err != nil {
		return fmt.Errorf("announcing device: %w", err)
	}
	return nil
}

// RegisterDevice binds an announced device to a user.
func RegisterDevice(ctx context.Context, q sqlx.ExtContext, androidID, barcodeID string) error {
	ok, err := UserExists(ctx, q, barcodeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %q: %w", barcodeID, model.ErrNotFound)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE registered_devices SET barcode_id = ? WHERE android_id = ?`,
		barcodeID, androidID,
	)
	if err != nil {
		return fmt.Errorf("registering device: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %q: %w", androidID, model.ErrNotFound)
	}
	return nil
}

// GetDeviceUser returns the user barcode a device is bound to. The boolean is
// false if the device is unknown or not yet registered.
func GetDeviceUser(ctx context.Context, q sqlx.QueryerContext, androidID string) (string, bool, error) {
	var barcode sql.NullString
	err := sqlx.GetContext(ctx, q, &barcode,
		`SELECT barcode_id FROM registered_devices WHERE android_id = ?`, androidID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting device: %w", err)
	}
	return barcode.String, barcode.Valid, nil
}

// ListUnregisteredDevices returns the android ids of devices with no user binding.
func ListUnregisteredDevices(ctx context.Context, q sqlx.QueryerContext) ([]string, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, q, &ids,
		`SELECT android_id FROM registered_devices WHERE barcode_id IS NULL ORDER BY android_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing unregistered devices: %w", err)
	}
	return ids, nil
}
