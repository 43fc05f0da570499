package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/auth"
	"github.com/erazemk/orodjarna/internal/store"
)

// AuthHandler exchanges the shared secret for device tokens.
type AuthHandler struct {
	DB       *sqlx.DB
	TokenKey string
}

type tokenRequest struct {
	AndroidID string `json:"android_id" validate:"required,max=128"`
}

type tokenResponse struct {
	Token       string `json:"token"`
	UserBarcode string `json:"user_barcode"`
}

// Token handles POST /auth/token. The device must already be registered to a user.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, ok, err := store.GetDeviceUser(r.Context(), h.DB, req.AndroidID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusForbidden, "device not registered")
		return
	}

	token, err := auth.IssueDeviceToken(h.TokenKey, req.AndroidID, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("device token issued", "device", req.AndroidID, "user", user)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token, UserBarcode: user})
}

// Logout handles POST /auth/logout by revoking the presented device token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	device := GetDevice(r.Context())
	if device == nil {
		jsonError(w, http.StatusBadRequest, "no device token presented")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, device.ID, device.ExpiresAt.Time); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("device logged out", "device", device.AndroidID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
