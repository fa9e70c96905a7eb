package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/linkograph/internal/analysis"
	"github.com/starford/linkograph/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc *analysis.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *analysis.Service) *Handler {
	return &Handler{svc: svc}
}

// Entropy handles POST /api/entropy.
//
//	@Summary		Compute the entropy of a linkograph
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EntropyRequest	true	"Move count and links"
//	@Success		200		{object}	EntropyResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entropy [post]
func (h *Handler) Entropy(w http.ResponseWriter, r *http.Request) {
	h.entropy(w, r, EntropyRequest{})
}

// LegacyEntropy handles POST /api/calculate_entropy. Its clients draw links
// on a 0-based canvas, so zero_based defaults to true.
func (h *Handler) LegacyEntropy(w http.ResponseWriter, r *http.Request) {
	h.entropy(w, r, EntropyRequest{ZeroBased: true})
}

func (h *Handler) entropy(w http.ResponseWriter, r *http.Request, req EntropyRequest) {
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.svc.ComputeEntropy(*req.MoveCount, req.LinkSet())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntropyResponse{Creativity: e})
}

// RunTest handles POST /api/run_test.
//
//	@Summary		Wald-Wolfowitz runs test
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RunTestRequest	true	"Counts and runs"
//	@Success		200		{object}	linkograph.RunTestResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/run_test [post]
func (h *Handler) RunTest(w http.ResponseWriter, r *http.Request) {
	var req RunTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.ComputeRunTest(*req.N1, *req.N2, *req.RunCount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreativityScore handles POST /api/creativity_score.
//
//	@Summary		Logistic creativity score from per-row statistics
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScoreRequest	true	"Move count and row statistics"
//	@Success		200		{object}	linkograph.ScoreResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/creativity_score [post]
func (h *Handler) CreativityScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.ComputeCreativityScore(*req.MoveCount, req.Rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RowStatistics handles POST /api/row_statistics.
//
//	@Summary		Per-row run statistics of a link set
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RowStatisticsRequest	true	"Move count and links"
//	@Success		200		{object}	RowStatisticsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/row_statistics [post]
func (h *Handler) RowStatistics(w http.ResponseWriter, r *http.Request) {
	var req RowStatisticsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.svc.RowStatistics(*req.MoveCount, req.LinkSet())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RowStatisticsResponse{Rows: rows})
}

// ListLinkographs handles GET /api/linkographs.
//
//	@Summary		List stored linkographs
//	@Tags			linkographs
//	@Produce		json
//	@Param			q		query		string	false	"Name filter"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	LinkographListResponse
//	@Security		BearerAuth
//	@Router			/linkographs [get]
func (h *Handler) ListLinkographs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListLinkographs(r.Context(), store.ListOptions{
		Query:  q.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkographListResponse{Linkographs: items, Total: total})
}

// CreateLinkograph handles POST /api/linkographs.
//
//	@Summary		Create a linkograph
//	@Tags			linkographs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateLinkographRequest	true	"Linkograph to create"
//	@Success		201		{object}	LinkographDataResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/linkographs [post]
func (h *Handler) CreateLinkograph(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkographRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.CreateLinkograph(r.Context(), analysis.CreateInput{
		Name:      req.Name,
		MoveCount: *req.MoveCount,
		Moves:     req.MoveNames(),
		Links:     req.LinkSet(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(p.Checksum))
	writeJSON(w, http.StatusCreated, p)
}

// GetLinkograph handles GET /api/linkographs/{id}.
//
//	@Summary		Moves and selected links of a linkograph
//	@Tags			linkographs
//	@Produce		json
//	@Param			id	path		string	true	"Linkograph ID"
//	@Success		200	{object}	LinkographDataResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/linkographs/{id} [get]
func (h *Handler) GetLinkograph(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetLinkograph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(p.Checksum))
	writeJSON(w, http.StatusOK, p)
}

// DeleteLinkograph handles DELETE /api/linkographs/{id}.
//
//	@Summary		Delete a linkograph
//	@Tags			linkographs
//	@Param			id	path	string	true	"Linkograph ID"
//	@Success		204	"Linkograph deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/linkographs/{id} [delete]
func (h *Handler) DeleteLinkograph(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLinkograph(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateLink handles PUT /api/linkographs/{id}/links.
//
//	@Summary		Select or clear a link with optimistic concurrency
//	@Tags			linkographs
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Linkograph ID"
//	@Param			If-Match	header		string				false	"Linkograph checksum"
//	@Param			body		body		UpdateLinkRequest	true	"Link and state"
//	@Success		200			{object}	LinkographDataResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/linkographs/{id}/links [put]
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	p, err := h.svc.SetLink(r.Context(), chi.URLParam(r, "id"), req.Link(), *req.State, ifMatch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(p.Checksum))
	writeJSON(w, http.StatusOK, p)
}

// Analysis handles GET /api/linkographs/{id}/analysis.
//
//	@Summary		Entropy, row statistics and creativity score of a linkograph
//	@Tags			linkographs
//	@Produce		json
//	@Param			id	path		string	true	"Linkograph ID"
//	@Success		200	{object}	analysis.Report
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/linkographs/{id}/analysis [get]
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
