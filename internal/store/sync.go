package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/checksum"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/models"
	"github.com/starford/linkograph/internal/parser"
	"github.com/starford/linkograph/internal/storage"
)

// Sync walks the protocol directory and brings the database up to date:
//   - new/changed files are parsed and upserted
//   - protocols whose files were removed from disk are deleted
//
// A file that fails to parse or validate is logged and skipped.
func Sync(ctx context.Context, repo Repository, files storage.Provider, logger *slog.Logger) error {
	metas, err := files.List("")
	if err != nil {
		return err
	}

	checksums, err := repo.SourceChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := files.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if _, _, err := ImportFile(ctx, repo, m.Path, data); err != nil {
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: imported", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if _, err := repo.DeleteSource(ctx, p); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// ImportFile parses a protocol file, validates it as a linkograph and upserts
// it under its source path. It reports whether a new protocol was created.
func ImportFile(ctx context.Context, repo Repository, source string, data []byte) (*models.Protocol, bool, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if _, err := linkograph.New(res.MoveCount, res.Links); err != nil {
		return nil, false, fmt.Errorf("%s: %w", source, err)
	}

	name := res.Title
	if name == "" {
		name = strings.TrimSuffix(path.Base(source), storage.Ext)
	}

	p := &models.Protocol{
		Name:      name,
		Source:    source,
		MoveCount: res.MoveCount,
		Moves:     res.Moves,
		Links:     res.Links,
	}
	created, err := repo.UpsertSource(ctx, p, checksum.Sum(data))
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}
