package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/orodjarna/internal/ledger"
	"github.com/erazemk/orodjarna/internal/model"
)

// PresenceHandler tracks who is on site.
type PresenceHandler struct {
	Ledger *ledger.Ledger
}

// Record handles POST /user-checkin/{userID} and POST /user-checkout/{userID}.
func (h *PresenceHandler) Record(kind model.PresenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := h.Ledger.RecordPresence(r.Context(), chi.URLParam(r, "userID"), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusCreated, ev)
	}
}

// Present handles GET /users-checkedin.
func (h *PresenceHandler) Present(w http.ResponseWriter, r *http.Request) {
	users, err := h.Ledger.CurrentlyPresentUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}
