package api

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
)

// Links are numbered from 1 unless a request sets zero_based, as the browser
// canvas does. zeroBased renumbers such links from 1.
func zeroBased(on bool, links []linkograph.Link) []linkograph.Link {
	if !on {
		return links
	}
	return linkograph.FromZeroBased(links)
}

// moveCountRule bounds move_count before any per-move work is done.
var moveCountRule = validation.Max(linkograph.MaxMoves)

// EntropyRequest is the request body for POST /api/entropy.
type EntropyRequest struct {
	MoveCount *int              `json:"move_count" example:"4" validate:"required"`
	Links     []linkograph.Link `json:"links" validate:"required"`
	ZeroBased bool              `json:"zero_based,omitempty" example:"false"`
}

func (r *EntropyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MoveCount, validation.NotNil, moveCountRule),
		validation.Field(&r.Links, validation.Required.Error("no links provided")),
	)
}

// LinkSet returns the request links numbered from 1.
func (r *EntropyRequest) LinkSet() []linkograph.Link {
	return zeroBased(r.ZeroBased, r.Links)
}

// EntropyResponse carries the linkograph entropy.
type EntropyResponse struct {
	Creativity float64 `json:"creativity" example:"1" validate:"required"`
}

// RunTestRequest is the request body for POST /api/run_test.
type RunTestRequest struct {
	N1       *int `json:"n1" example:"5" validate:"required"`
	N2       *int `json:"n2" example:"5" validate:"required"`
	RunCount *int `json:"run_count" example:"5" validate:"required"`
}

func (r *RunTestRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.N1, validation.NotNil, validation.Min(0)),
		validation.Field(&r.N2, validation.NotNil, validation.Min(0)),
		validation.Field(&r.RunCount, validation.NotNil, validation.Min(0)),
	)
}

// ScoreRequest is the request body for POST /api/creativity_score.
type ScoreRequest struct {
	MoveCount *int                 `json:"move_count" example:"10" validate:"required"`
	Rows      []linkograph.RowStat `json:"rows" validate:"required"`
}

func (r *ScoreRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MoveCount, validation.NotNil, moveCountRule),
		validation.Field(&r.Rows, validation.Required.Error("no rows provided"), validation.Length(0, linkograph.MaxMoves)),
	)
}

// RowStatisticsRequest is the request body for POST /api/row_statistics.
type RowStatisticsRequest struct {
	MoveCount *int              `json:"move_count" example:"4" validate:"required"`
	Links     []linkograph.Link `json:"links"`
	ZeroBased bool              `json:"zero_based,omitempty" example:"false"`
}

func (r *RowStatisticsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MoveCount, validation.NotNil, moveCountRule),
	)
}

// LinkSet returns the request links numbered from 1.
func (r *RowStatisticsRequest) LinkSet() []linkograph.Link {
	return zeroBased(r.ZeroBased, r.Links)
}

// RowStatisticsResponse lists per-row run statistics, shortest distance first.
type RowStatisticsResponse struct {
	Rows []linkograph.RowStat `json:"rows" validate:"required"`
}

// CreateLinkographRequest is the request body for POST /api/linkographs.
type CreateLinkographRequest struct {
	Name      string            `json:"name" example:"Chair study"`
	MoveCount *int              `json:"move_count" example:"5" validate:"required"`
	Moves     []models.Move     `json:"moves"`
	Links     []linkograph.Link `json:"links"`
	ZeroBased bool              `json:"zero_based,omitempty" example:"false"`
}

func (r *CreateLinkographRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.MoveCount, validation.NotNil, validation.Min(linkograph.MinMoves), moveCountRule),
	)
}

// LinkSet returns the request links numbered from 1.
func (r *CreateLinkographRequest) LinkSet() []linkograph.Link {
	return zeroBased(r.ZeroBased, r.Links)
}

// MoveNames returns the named moves with IDs numbered from 1.
func (r *CreateLinkographRequest) MoveNames() []models.Move {
	if !r.ZeroBased {
		return r.Moves
	}
	out := make([]models.Move, len(r.Moves))
	for i, m := range r.Moves {
		out[i] = models.Move{ID: m.ID + 1, Name: m.Name}
	}
	return out
}

// UpdateLinkRequest is the request body for PUT /api/linkographs/{id}/links.
// The link is given either as move1/move2 or as a "move1-move2" link_id,
// numbered from 0 when zero_based is set.
type UpdateLinkRequest struct {
	Move1     int    `json:"move1" example:"1"`
	Move2     int    `json:"move2" example:"3"`
	LinkID    string `json:"link_id,omitempty" example:"1-3"`
	State     *bool  `json:"state" example:"true" validate:"required"`
	ZeroBased bool   `json:"zero_based,omitempty" example:"false"`
}

func (r *UpdateLinkRequest) Validate() error {
	if r.LinkID != "" {
		l, err := parseLinkID(r.LinkID)
		if err != nil {
			return validation.Errors{"link_id": err}
		}
		r.Move1, r.Move2 = l.Move1, l.Move2
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.State, validation.NotNil),
		validation.Field(&r.Move2, validation.Required),
	)
}

// Link returns the link addressed by the request, numbered from 1.
func (r *UpdateLinkRequest) Link() linkograph.Link {
	return zeroBased(r.ZeroBased, []linkograph.Link{{Move1: r.Move1, Move2: r.Move2}})[0]
}

func parseLinkID(id string) (linkograph.Link, error) {
	a, b, ok := strings.Cut(id, "-")
	if !ok {
		return linkograph.Link{}, fmt.Errorf("expected move1-move2, got %q", id)
	}
	m1, err1 := strconv.Atoi(strings.TrimSpace(a))
	m2, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return linkograph.Link{}, fmt.Errorf("expected move1-move2, got %q", id)
	}
	return linkograph.Link{Move1: m1, Move2: m2}, nil
}

// LinkographListResponse wraps paginated linkograph listings.
type LinkographListResponse struct {
	Linkographs []models.ProtocolSummary `json:"linkographs" validate:"required"`
	Total       int                      `json:"total" example:"42" validate:"required"`
}

// LinkographDataResponse is the move and link view of a stored linkograph.
type LinkographDataResponse = models.Protocol
