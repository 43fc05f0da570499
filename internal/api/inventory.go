package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/orodjarna/internal/audit"
	"github.com/erazemk/orodjarna/internal/model"
)

// InventoryHandler handles audit endpoints.
type InventoryHandler struct {
	Audits *audit.Engine
}

type completeRequest struct {
	ID    int64   `json:"id" validate:"required,gt=0"`
	Notes *string `json:"notes" validate:"omitempty,max=4096"`
}

type observationRequest struct {
	InventoryID int64   `json:"inventory_id" validate:"required,gt=0"`
	ItemID      string  `json:"item_id" validate:"required,max=128"`
	Status      string  `json:"status" validate:"required"`
	Notes       *string `json:"notes" validate:"omitempty,max=4096"`
}

func inventoryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "inventoryID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid inventory id: %w", model.ErrInvalidArgument)
	}
	return id, nil
}

// List handles GET /inventory-events.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.Audits.ListAudits(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []model.InventoryEvent{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// Start handles POST /inventory-events.
func (h *InventoryHandler) Start(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Audits.StartAudit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("audit started", "audit", ev.ID)
	jsonResponse(w, http.StatusCreated, ev)
}

// Complete handles PATCH /inventory-events.
func (h *InventoryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ev, err := h.Audits.CompleteAudit(r.Context(), req.ID, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("audit completed", "audit", ev.ID)
	jsonResponse(w, http.StatusOK, ev)
}

// Get handles GET /inventory-events/{inventoryID}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := inventoryID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ev, err := h.Audits.GetAudit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, ev)
}

// Summary handles GET /inventory-events/{inventoryID}/summary.
func (h *InventoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := inventoryID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.Audits.Summary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// Observe handles POST /inventoried-items.
func (h *InventoryHandler) Observe(w http.ResponseWriter, r *http.Request) {
	var req observationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	obs, err := h.Audits.RecordObservation(r.Context(), req.InventoryID, req.ItemID,
		model.InventoryStatus(req.Status), req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, obs)
}

// Observation handles GET /inventoried-items/{inventoryID}/{itemID}.
func (h *InventoryHandler) Observation(w http.ResponseWriter, r *http.Request) {
	id, err := inventoryID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	obs, err := h.Audits.GetObservation(r.Context(), id, chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if obs == nil {
		jsonError(w, http.StatusNotFound, "item not scanned in this audit")
		return
	}
	jsonResponse(w, http.StatusOK, obs)
}

// derivedQuery adapts a derived audit query to a handler.
func derivedQuery[T any](query func(ctx context.Context, id int64, r *http.Request) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := inventoryID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		rows, err := query(r.Context(), id, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, rows)
	}
}

// NotYetScanned handles GET /inventoried-items-uninventoried/{inventoryID}.
func (h *InventoryHandler) NotYetScanned(w http.ResponseWriter, r *http.Request) {
	derivedQuery(func(ctx context.Context, id int64, _ *http.Request) ([]model.Item, error) {
		return h.Audits.ItemsNotYetScanned(ctx, id)
	})(w, r)
}

// OutsideContainers handles GET /inventoried-items-not-in-containers/{inventoryID}.
func (h *InventoryHandler) OutsideContainers(w http.ResponseWriter, r *http.Request) {
	derivedQuery(func(ctx context.Context, id int64, _ *http.Request) ([]model.InventoriedItem, error) {
		return h.Audits.ItemsScannedOutsideAnyContainer(ctx, id)
	})(w, r)
}

// InContainer handles GET /inventoried-items-in-container/{inventoryID}/{containerID}.
func (h *InventoryHandler) InContainer(w http.ResponseWriter, r *http.Request) {
	derivedQuery(func(ctx context.Context, id int64, r *http.Request) ([]model.InventoriedItem, error) {
		return h.Audits.ItemsScannedInContainer(ctx, id, chi.URLParam(r, "containerID"))
	})(w, r)
}

// NotGood handles GET /inventoried-items-not-good/{inventoryID}.
func (h *InventoryHandler) NotGood(w http.ResponseWriter, r *http.Request) {
	derivedQuery(func(ctx context.Context, id int64, _ *http.Request) ([]model.InventoriedItem, error) {
		return h.Audits.ItemsNotGood(ctx, id)
	})(w, r)
}
