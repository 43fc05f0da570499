package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/pictures"
)

// maxUploadSize bounds multipart bodies. Phone cameras produce large files
// that are shrunk on save.
const maxUploadSize = 16 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseUpload parses a multipart body and returns its "picture" file, or nil
// if none was sent. savePicture closes the file.
func parseUpload(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	if err := parseMultipart(w, r); err != nil {
		return nil, err
	}
	return formPicture(r)
}

// parseMultipart reads a bounded multipart body into r.MultipartForm.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return fmt.Errorf("file too large or invalid multipart form: %w", model.ErrInvalidArgument)
	}
	return nil
}

// formPicture opens the "picture" file of a parsed form, or returns nil if
// none was sent.
func formPicture(r *http.Request) (multipart.File, error) {
	file, _, err := r.FormFile("picture")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading picture: %w", model.ErrInvalidArgument)
	}
	return file, nil
}

// savePicture stores an upload and returns its name.
func savePicture(r *http.Request, s pictures.Store, file multipart.File) (string, error) {
	defer file.Close()
	return pictures.Save(r.Context(), s, file)
}

// servePicture streams a stored picture.
func servePicture(w http.ResponseWriter, r *http.Request, s pictures.Store, name string) {
	if name == "" {
		jsonError(w, http.StatusNotFound, "no picture")
		return
	}

	rc, err := s.Get(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", pictures.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming picture", "name", name, "error", err)
	}
}
