package model

import "fmt"

// Checkout is a tool loan. Immutable once written.
type Checkout struct {
	CheckoutID            int64   `json:"checkout_id" db:"checkout_id"`
	ItemID                string  `json:"item_id" db:"item_id"`
	UserID                string  `json:"user_id" db:"user_id"`
	UnixTime              int64   `json:"unix_time" db:"unix_time"`
	OverrideJustification *string `json:"override_justification" db:"override_justification"`
}

// Checkin closes exactly one checkout.
type Checkin struct {
	CheckinID             int64   `json:"checkin_id" db:"checkin_id"`
	CheckoutID            int64   `json:"checkout_id" db:"checkout_id"`
	ItemID                string  `json:"item_id" db:"item_id"`
	UserID                string  `json:"user_id" db:"user_id"`
	UnixTime              int64   `json:"unix_time" db:"unix_time"`
	OverrideJustification *string `json:"override_justification" db:"override_justification"`
	Description           *string `json:"description" db:"description"`
}

// LedgerEntry pairs a checkout with its checkin, if any.
type LedgerEntry struct {
	Checkout Checkout `json:"checkout"`
	Checkin  *Checkin `json:"checkin,omitempty"`
}

// PresenceKind is the stream a presence event belongs to.
type PresenceKind string

// Presence kinds.
const (
	PresenceCheckin  PresenceKind = "CHECKIN"
	PresenceCheckout PresenceKind = "CHECKOUT"
)

// ParsePresenceKind validates a presence kind.
func ParsePresenceKind(s string) (PresenceKind, error) {
	switch k := PresenceKind(s); k {
	case PresenceCheckin, PresenceCheckout:
		return k, nil
	}
	return "", fmt.Errorf("unknown presence kind %q: %w", s, ErrInvalidArgument)
}

// PresenceEvent is a user arriving at or leaving the site.
type PresenceEvent struct {
	Seq      int64        `json:"seq" db:"seq"`
	UserID   string       `json:"user_id" db:"user_id"`
	Kind     PresenceKind `json:"kind" db:"kind"`
	UnixTime int64        `json:"unix_time" db:"unix_time"`
}
