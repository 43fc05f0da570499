package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/pictures"
	"github.com/erazemk/orodjarna/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB       *sqlx.DB
	Pictures pictures.Store
}

type itemRequest struct {
	ShortID     string `json:"short_id" validate:"max=64"`
	Name        string `json:"name" validate:"max=256"`
	Description string `json:"description" validate:"max=4096"`
}

// List handles GET /items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /items/{barcodeID}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, chi.URLParam(r, "barcodeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Upsert handles POST /items/{barcodeID}. The body is either JSON or a
// multipart form with the same fields and an optional "picture" file.
func (h *ItemsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	item := model.Item{BarcodeID: chi.URLParam(r, "barcodeID")}

	if isMultipart(r) {
		if err := parseMultipart(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		req := itemRequest{
			ShortID:     r.FormValue("short_id"),
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
		}
		if err := validate.Struct(req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid form fields")
			return
		}
		item.ShortID, item.Name, item.Description = req.ShortID, req.Name, req.Description

		file, err := formPicture(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		// The picture is stored before the item so a failed upload leaves the item untouched.
		if file != nil {
			if item.PicturePath, err = savePicture(r, h.Pictures, file); err != nil {
				writeError(w, r, err)
				return
			}
		}
	} else {
		var req itemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		item.ShortID, item.Name, item.Description = req.ShortID, req.Name, req.Description
	}

	saved, err := store.UpsertItem(r.Context(), h.DB, item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, saved)
}

// GetPicture handles GET /item-picture/{barcodeID}.
func (h *ItemsHandler) GetPicture(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, chi.URLParam(r, "barcodeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	servePicture(w, r, h.Pictures, item.PicturePath)
}

// UploadPicture handles POST /item-picture/{barcodeID}.
func (h *ItemsHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	barcodeID := chi.URLParam(r, "barcodeID")

	ok, err := store.ItemExists(r.Context(), h.DB, barcodeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	file, err := parseUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if file == nil {
		jsonError(w, http.StatusBadRequest, "picture file required")
		return
	}

	name, err := savePicture(r, h.Pictures, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.SetItemPicture(r.Context(), h.DB, barcodeID, name); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"picture_path": name})
}
