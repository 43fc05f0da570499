package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/orodjarna/internal/ledger"
	"github.com/erazemk/orodjarna/internal/model"
)

// ToolshedHandler handles tool checkouts and checkins.
type ToolshedHandler struct {
	Ledger *ledger.Ledger
}

type checkoutRequest struct {
	ItemID                string  `json:"item_id" validate:"required,max=128"`
	UserID                string  `json:"user_id" validate:"required,max=128"`
	OverrideJustification *string `json:"override_justification" validate:"omitempty,max=1024"`
}

type checkinRequest struct {
	CheckoutID            *int64  `json:"checkout_id" validate:"omitempty,gt=0"`
	ItemID                string  `json:"item_id" validate:"required,max=128"`
	UserID                string  `json:"user_id" validate:"required,max=128"`
	OverrideJustification *string `json:"override_justification" validate:"omitempty,max=1024"`
	Description           *string `json:"description" validate:"omitempty,max=4096"`
}

// Checkout handles POST /toolshed-checkout.
func (h *ToolshedHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Ledger.RecordCheckout(r.Context(), req.ItemID, req.UserID, req.OverrideJustification)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item checked out", "item", c.ItemID, "user", c.UserID, "checkout", c.CheckoutID)
	jsonResponse(w, http.StatusCreated, c)
}

// Checkin handles POST /toolshed-checkin.
func (h *ToolshedHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ci, err := h.Ledger.RecordCheckin(r.Context(), ledger.CheckinRequest{
		CheckoutID:    req.CheckoutID,
		ItemID:        req.ItemID,
		UserID:        req.UserID,
		Justification: req.OverrideJustification,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item checked in", "item", ci.ItemID, "user", ci.UserID, "checkout", ci.CheckoutID)
	jsonResponse(w, http.StatusCreated, ci)
}

// LastOutstanding handles GET /toolshed-checkout/{itemID}/last-outstanding.
func (h *ToolshedHandler) LastOutstanding(w http.ResponseWriter, r *http.Request) {
	c, err := h.Ledger.OutstandingCheckoutFor(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "no outstanding checkout")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// History handles GET /toolshed-history/{itemID}.
func (h *ToolshedHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Ledger.History(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// OutstandingByUser handles GET /users/{barcodeID}/toolshed-checkout-outstanding.
func (h *ToolshedHandler) OutstandingByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.OutstandingCheckoutsByUser(r.Context(), chi.URLParam(r, "barcodeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// UsersWithOutstanding handles GET /users-toolshed-checkout-outstanding.
func (h *ToolshedHandler) UsersWithOutstanding(w http.ResponseWriter, r *http.Request) {
	users, err := h.Ledger.UsersWithOutstandingCheckouts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}
