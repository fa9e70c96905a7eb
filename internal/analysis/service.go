// Package analysis coordinates the linkograph engine with the repository, the
// protocol directory and change notifications. Transports (HTTP, MCP, CLI)
// call into a Service and never touch the engine or the store directly.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
	"github.com/starford/linkograph/internal/parser"
	"github.com/starford/linkograph/internal/storage"
	"github.com/starford/linkograph/internal/store"
)

// DefaultName is given to linkographs created without a name.
const DefaultName = "Untitled linkograph"

// Notifier receives linkograph change events. kind is one of "created",
// "updated", "deleted".
type Notifier interface {
	PublishLinkographEvent(kind, id string)
}

// Service implements the external linkograph operations.
type Service struct {
	repo   store.Repository
	files  storage.Provider
	notify Notifier
	coeff  linkograph.Coefficients

	maxMoves int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxMoves lowers the largest accepted move count below
// linkograph.MaxMoves. Values outside 1..linkograph.MaxMoves are ignored.
func WithMaxMoves(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= linkograph.MaxMoves {
			s.maxMoves = n
		}
	}
}

// NewService creates a new analysis service. files and notify may be nil:
// without files protocol uploads are rejected, without notify no events are sent.
func NewService(repo store.Repository, files storage.Provider, notify Notifier, coeff linkograph.Coefficients, opts ...Option) *Service {
	s := &Service{repo: repo, files: files, notify: notify, coeff: coeff, maxMoves: linkograph.MaxMoves}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxMoves returns the largest move count the service accepts.
func (s *Service) MaxMoves() int {
	return s.maxMoves
}

func (s *Service) checkMoves(moveCount int) error {
	if moveCount > s.maxMoves {
		return fmt.Errorf("%w: move count %d exceeds limit %d", apperr.ErrInvalidInput, moveCount, s.maxMoves)
	}
	return nil
}

// ComputeEntropy validates the linkograph and returns its entropy.
// An empty link set is rejected.
func (s *Service) ComputeEntropy(moveCount int, links []linkograph.Link) (float64, error) {
	if len(links) == 0 {
		return 0, fmt.Errorf("%w: no links", apperr.ErrInvalidInput)
	}
	if err := s.checkMoves(moveCount); err != nil {
		return 0, err
	}
	g, err := linkograph.New(moveCount, links)
	if err != nil {
		return 0, err
	}
	return g.Entropy(), nil
}

// ComputeRunTest runs the Wald-Wolfowitz runs test on one binary sequence summary.
func (s *Service) ComputeRunTest(n1, n2, runCount int) (linkograph.RunTestResult, error) {
	return linkograph.RunTest(n1, n2, runCount)
}

// ComputeCreativityScore scores the per-row run statistics of a linkograph
// with the configured coefficients.
func (s *Service) ComputeCreativityScore(moveCount int, rows []linkograph.RowStat) (linkograph.ScoreResult, error) {
	if err := s.checkMoves(moveCount); err != nil {
		return linkograph.ScoreResult{}, err
	}
	if len(rows) > s.maxMoves {
		return linkograph.ScoreResult{}, fmt.Errorf("%w: %d rows exceed limit %d", apperr.ErrInvalidInput, len(rows), s.maxMoves)
	}
	return linkograph.Score(moveCount, rows, s.coeff)
}

// RowStatistics derives per-row run statistics from a link set.
func (s *Service) RowStatistics(moveCount int, links []linkograph.Link) ([]linkograph.RowStat, error) {
	if err := s.checkMoves(moveCount); err != nil {
		return nil, err
	}
	g, err := linkograph.New(moveCount, links)
	if err != nil {
		return nil, err
	}
	return g.RowStatistics(), nil
}

// CreateInput describes a linkograph created through the API.
type CreateInput struct {
	Name      string
	MoveCount int
	Moves     []models.Move // optional names, matched by ID
	Links     []linkograph.Link
}

// CreateLinkograph validates and stores a new linkograph.
func (s *Service) CreateLinkograph(ctx context.Context, in CreateInput) (*models.Protocol, error) {
	if err := s.checkMoves(in.MoveCount); err != nil {
		return nil, err
	}
	if _, err := linkograph.New(in.MoveCount, in.Links); err != nil {
		return nil, err
	}

	moves := models.DefaultMoves(in.MoveCount)
	for _, m := range in.Moves {
		if m.ID < 1 || m.ID > in.MoveCount {
			return nil, fmt.Errorf("%w: move %d outside 1..%d", apperr.ErrInvalidInput, m.ID, in.MoveCount)
		}
		if name := strings.TrimSpace(m.Name); name != "" {
			moves[m.ID-1].Name = name
		}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultName
	}

	p := &models.Protocol{
		Name:      name,
		MoveCount: in.MoveCount,
		Moves:     moves,
		Links:     dedupe(in.Links),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish("created", p.ID)
	return p, nil
}

// GetLinkograph returns a stored linkograph.
func (s *Service) GetLinkograph(ctx context.Context, id string) (*models.Protocol, error) {
	return s.repo.Get(ctx, id)
}

// ListLinkographs returns a page of linkograph summaries and the total count.
func (s *Service) ListLinkographs(ctx context.Context, opts store.ListOptions) ([]models.ProtocolSummary, int, error) {
	return s.repo.List(ctx, opts)
}

// DeleteLinkograph removes a linkograph and, for imported ones, its protocol file.
func (s *Service) DeleteLinkograph(ctx context.Context, id string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if p.Source != "" && s.files != nil {
		if err := s.files.Delete(p.Source); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("analysis: delete protocol file: %w", err)
		}
	}
	s.publish("deleted", id)
	return nil
}

// SetLink selects or clears one link. The link must fit the stored move
// count; ifMatch, when set, must equal the current checksum. Linkographs
// imported from a protocol file are edited through the file, so SetLink
// refuses them.
func (s *Service) SetLink(ctx context.Context, id string, l linkograph.Link, selected bool, ifMatch string) (*models.Protocol, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Source != "" {
		return nil, fmt.Errorf("%w: linkograph is imported from %s; edit the protocol file instead", apperr.ErrInvalidInput, p.Source)
	}
	if _, err := linkograph.New(p.MoveCount, append(p.Links, l)); err != nil {
		return nil, err
	}
	updated, err := s.repo.SetLink(ctx, id, l, selected, ifMatch)
	if err != nil {
		return nil, err
	}
	s.publish("updated", id)
	return updated, nil
}

// Analyze builds the analysis report of a stored linkograph.
func (s *Service) Analyze(ctx context.Context, id string) (*Report, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := BuildReport(p.Name, p.MoveCount, p.Links, s.coeff)
	if err != nil {
		return nil, err
	}
	r.ID = p.ID
	r.Checksum = p.Checksum
	return r, nil
}

// ImportProtocol stores a protocol file under name in the protocol directory
// and imports it. An existing file of the same name is replaced.
func (s *Service) ImportProtocol(ctx context.Context, name string, data []byte) (*models.Protocol, error) {
	if s.files == nil {
		return nil, fmt.Errorf("%w: protocol directory not configured", apperr.ErrInvalidInput)
	}
	source, err := protocolName(name)
	if err != nil {
		return nil, err
	}

	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if err := s.checkMoves(res.MoveCount); err != nil {
		return nil, err
	}

	// The database goes first so the watcher, seeing the new file, finds
	// its checksum already stored and skips it.
	p, created, err := store.ImportFile(ctx, s.repo, source, data)
	if err != nil {
		return nil, err
	}
	if err := s.files.Write(source, data); err != nil {
		if created {
			_, _ = s.repo.DeleteSource(ctx, source)
		}
		return nil, fmt.Errorf("analysis: write protocol: %w", err)
	}

	kind := "updated"
	if created {
		kind = "created"
	}
	s.publish(kind, p.ID)
	return p, nil
}

// AnalyzeProtocol parses raw protocol bytes and reports on them without
// storing anything.
func (s *Service) AnalyzeProtocol(data []byte) (*Report, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if err := s.checkMoves(res.MoveCount); err != nil {
		return nil, err
	}
	return BuildReport(res.Title, res.MoveCount, res.Links, s.coeff)
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify.PublishLinkographEvent(kind, id)
	}
}

// protocolName reduces an uploaded file name to a protocol file at the root
// of the protocol directory, adding the extension when missing.
func protocolName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if !strings.HasSuffix(base, storage.Ext) {
		base += storage.Ext
	}
	if !storage.IsProtocolFile(base) {
		return "", fmt.Errorf("%w: invalid protocol file name %q", apperr.ErrInvalidInput, name)
	}
	return base, nil
}

func dedupe(links []linkograph.Link) []linkograph.Link {
	out := append([]linkograph.Link{}, links...)
	slices.SortFunc(out, func(a, b linkograph.Link) int {
		if a.Move1 != b.Move1 {
			return a.Move1 - b.Move1
		}
		return a.Move2 - b.Move2
	})
	return slices.Compact(out)
}
