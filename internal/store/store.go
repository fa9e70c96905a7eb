package store

import (
	"context"

	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
)

// ListOptions filters and pages List results.
type ListOptions struct {
	Query  string // case-insensitive substring of the name
	Limit  int
	Offset int
}

// Repository defines the linkograph persistence operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type Repository interface {
	Create(ctx context.Context, p *models.Protocol) error
	Get(ctx context.Context, id string) (*models.Protocol, error)
	List(ctx context.Context, opts ListOptions) ([]models.ProtocolSummary, int, error)
	Delete(ctx context.Context, id string) error
	SetLink(ctx context.Context, id string, l linkograph.Link, selected bool, ifMatch string) (*models.Protocol, error)
	UpsertSource(ctx context.Context, p *models.Protocol, fileChecksum string) (created bool, err error)
	DeleteSource(ctx context.Context, source string) (id string, err error)
	SourceChecksum(ctx context.Context, source string) (string, error)
	SourceChecksums(ctx context.Context) (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
