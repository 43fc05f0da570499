package model

import (
	"encoding/json"
	"fmt"
)

// InventoryEvent is one physical inventory audit.
type InventoryEvent struct {
	ID               int64   `json:"id" db:"id"`
	StartUnixTime    int64   `json:"start_unix_time" db:"start_unix_time"`
	CompleteUnixTime *int64  `json:"complete_unix_time" db:"complete_unix_time"`
	Notes            *string `json:"notes" db:"notes"`
}

// AuditState is derived from the completion time.
type AuditState string

// Audit states.
const (
	AuditOpen   AuditState = "OPEN"
	AuditClosed AuditState = "CLOSED"
)

// State reports whether the audit is still open.
func (e InventoryEvent) State() AuditState {
	if e.CompleteUnixTime == nil {
		return AuditOpen
	}
	return AuditClosed
}

// InventoryStatus is the observed condition of an item during an audit.
type InventoryStatus string

// Inventory statuses.
const (
	StatusGood          InventoryStatus = "GOOD"
	StatusMissing       InventoryStatus = "MISSING"
	StatusWrongLocation InventoryStatus = "WRONG_LOCATION"
	StatusNewItem       InventoryStatus = "NEW_ITEM"
	StatusDamaged       InventoryStatus = "DAMAGED"
	StatusOther         InventoryStatus = "OTHER"
)

// InventoryStatuses lists every status in declaration order.
var InventoryStatuses = []InventoryStatus{
	StatusGood,
	StatusMissing,
	StatusWrongLocation,
	StatusNewItem,
	StatusDamaged,
	StatusOther,
}

// ParseInventoryStatus validates a status.
func ParseInventoryStatus(s string) (InventoryStatus, error) {
	switch st := InventoryStatus(s); st {
	case StatusGood, StatusMissing, StatusWrongLocation, StatusNewItem, StatusDamaged, StatusOther:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// UnmarshalJSON rejects unknown statuses at decode time.
func (s *InventoryStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseInventoryStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// InventoriedItem is an observation of one item during one audit.
type InventoriedItem struct {
	InventoryID int64           `json:"inventory_id" db:"inventory_id"`
	ItemID      string          `json:"item_id" db:"item_id"`
	Status      InventoryStatus `json:"status" db:"status"`
	Notes       *string         `json:"notes" db:"notes"`
}

// Reconciliation summarizes an audit.
type Reconciliation struct {
	InventoryID   int64                   `json:"inventory_id"`
	State         AuditState              `json:"state"`
	Scanned       int                     `json:"scanned"`
	NotYetScanned int                     `json:"not_yet_scanned"`
	ByStatus      map[InventoryStatus]int `json:"by_status"`
}
