package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/store"
)

// DevicesHandler pairs scanner handsets with users.
type DevicesHandler struct {
	DB *sqlx.DB
}

// GetUser handles GET /registered-devices/{androidID}.
func (h *DevicesHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok, err := store.GetDeviceUser(r.Context(), h.DB, chi.URLParam(r, "androidID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "device not registered")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Register handles POST /registered-devices/{androidID}/{barcodeID}.
func (h *DevicesHandler) Register(w http.ResponseWriter, r *http.Request) {
	androidID := chi.URLParam(r, "androidID")
	barcodeID := chi.URLParam(r, "barcodeID")

	if err := store.RegisterDevice(r.Context(), h.DB, androidID, barcodeID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("device registered", "device", androidID, "user", barcodeID)
	w.WriteHeader(http.StatusOK)
}

// ListUnregistered handles GET /unregistered-devices.
func (h *DevicesHandler) ListUnregistered(w http.ResponseWriter, r *http.Request) {
	ids, err := store.ListUnregisteredDevices(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	jsonResponse(w, http.StatusOK, ids)
}

// Announce handles PUT /unregistered-devices/{androidID}.
func (h *DevicesHandler) Announce(w http.ResponseWriter, r *http.Request) {
	if err := store.AnnounceDevice(r.Context(), h.DB, chi.URLParam(r, "androidID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
