package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/pictures"
	"github.com/erazemk/orodjarna/internal/store"
)

// UsersHandler handles user endpoints.
type UsersHandler struct {
	DB       *sqlx.DB
	Pictures pictures.Store
}

type userRequest struct {
	BarcodeID          string `json:"barcode_id" validate:"required,max=128"`
	Name               string `json:"name" validate:"max=256"`
	Company            string `json:"company" validate:"max=256"`
	UserType           string `json:"user_type" validate:"max=64"`
	Description        string `json:"description" validate:"max=4096"`
	InitialCheckinInfo string `json:"initial_checkin_info" validate:"max=4096"`
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Get handles GET /users/{barcodeID}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, chi.URLParam(r, "barcodeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Upsert handles POST /users.
func (h *UsersHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.UpsertUser(r.Context(), h.DB, model.User{
		BarcodeID:          req.BarcodeID,
		Name:               req.Name,
		Company:            req.Company,
		UserType:           req.UserType,
		Description:        req.Description,
		InitialCheckinInfo: req.InitialCheckinInfo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// GetPicture handles GET /user-picture/{barcodeID}.
func (h *UsersHandler) GetPicture(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, chi.URLParam(r, "barcodeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	servePicture(w, r, h.Pictures, user.PicturePath)
}

// UploadPicture handles POST /user-picture/{barcodeID}.
func (h *UsersHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	barcodeID := chi.URLParam(r, "barcodeID")

	ok, err := store.UserExists(r.Context(), h.DB, barcodeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "user not found")
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
	if err := store.SetUserPicture(r.Context(), h.DB, barcodeID, name); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"picture_path": name})
}
