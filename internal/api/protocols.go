package api

import (
	"io"
	"net/http"
)

const maxUploadBytes = 5 << 20

// UploadProtocol handles POST /api/protocols (multipart/form-data, field "file").
//
//	@Summary		Upload and import a protocol file
//	@Tags			protocols
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Protocol Markdown file"
//	@Success		201		{object}	LinkographDataResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/protocols [post]
func (h *Handler) UploadProtocol(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	p, err := h.svc.ImportProtocol(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
