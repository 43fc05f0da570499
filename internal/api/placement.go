package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/containment"
	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

// PlacementHandler handles containment edges and location lookups.
type PlacementHandler struct {
	DB *sqlx.DB
}

type fullLocationResponse struct {
	*model.FullLocation
	Placement model.Placement `json:"placement"`
}

// FullLocation handles GET /full-location/{itemID}.
func (h *PlacementHandler) FullLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := containment.ResolveFullLocation(r.Context(), h.DB, chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, fullLocationResponse{FullLocation: loc, Placement: containment.Classify(loc)})
}

// Parent handles GET /item-parent/{itemID}.
func (h *PlacementHandler) Parent(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	ok, err := store.ItemExists(r.Context(), h.DB, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	parent, ok, err := containment.ImmediateParent(r.Context(), h.DB, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item is not in a container")
		return
	}
	jsonResponse(w, http.StatusOK, parent)
}

// NotInContainers handles GET /items-not-in-containers.
func (h *PlacementHandler) NotInContainers(w http.ResponseWriter, r *http.Request) {
	items, err := store.ItemsNotInContainers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Held handles GET /{containers,vehicles,locations}/{holderID}.
func (h *PlacementHandler) Held(kind model.EdgeKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ItemsHeldBy(r.Context(), h.DB, kind, chi.URLParam(r, "holderID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if items == nil {
			items = []model.Item{}
		}
		jsonResponse(w, http.StatusOK, items)
	}
}

// Place handles POST /{containers,vehicles,locations}/{holderID} with a JSON
// list of item ids.
func (h *PlacementHandler) Place(kind model.EdgeKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var itemIDs []string
		if err := decodeJSON(r, &itemIDs); err != nil {
			writeError(w, r, err)
			return
		}

		if err := store.SetEdges(r.Context(), h.DB, kind, chi.URLParam(r, "holderID"), itemIDs); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// Remove handles DELETE /{containers,vehicles,locations}/{holderID}/{itemID}.
func (h *PlacementHandler) Remove(kind model.EdgeKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.RemoveEdge(r.Context(), h.DB, kind, chi.URLParam(r, "itemID"), chi.URLParam(r, "holderID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
