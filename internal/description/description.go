package description

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ytalbum/internal/logging"
	"ytalbum/internal/services"
)

// ErrNoDescription reports that no source produced a non-empty description.
var ErrNoDescription = fmt.Errorf("%w: video description", services.ErrNotFound)

// Description is the text of a video description plus optional metadata
// used for default tags.
type Description struct {
	Text   string
	Title  string
	Author string
	Source string
}

// Empty reports whether the description carries no usable text.
func (d Description) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Source produces a description for a video URL.
type Source interface {
	Name() string
	Fetch(ctx context.Context, url string) (Description, error)
}

// FileSource reads the description from a local file and ignores the URL.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file" }

// Fetch returns the file contents verbatim.
func (s FileSource) Fetch(ctx context.Context, _ string) (Description, error) {
	if err := ctx.Err(); err != nil {
		return Description{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, os.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return Description{}, services.Wrap(marker, "description", "read file", s.Path, err)
	}
	return Description{Text: string(data), Source: s.Name()}, nil
}

// Chain tries each source in order and returns the first non-empty result.
type Chain struct {
	Sources []Source
	Logger  *slog.Logger
}

// NewChain builds a chain that logs source failures with logger.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	return &Chain{Sources: sources, Logger: logging.NewComponentLogger(logger, "description")}
}

func (c *Chain) Name() string { return "chain" }

// Fetch returns the first description with text. Source failures are logged
// and the next source is tried; context cancellation stops the chain.
func (c *Chain) Fetch(ctx context.Context, url string) (Description, error) {
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	var errs []error
	for _, source := range c.Sources {
		if source == nil {
			continue
		}
		desc, err := source.Fetch(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Description{}, services.Wrap(services.ErrCanceled, "description", source.Name(), "", ctxErr)
			}
			logging.WarnWithContext(ctx, logger, "description source failed", "description_source_failed",
				logging.String("source", source.Name()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "trying next source"),
				logging.String(logging.FieldErrorHint, "pass --descr FILE to supply the description manually"),
			)
			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			continue
		}
		if desc.Empty() {
			logger.DebugContext(ctx, "description source returned no text", logging.String("source", source.Name()))
			continue
		}
		if desc.Source == "" {
			desc.Source = source.Name()
		}
		logger.InfoContext(ctx, "description resolved",
			logging.String("source", desc.Source),
			logging.Int("bytes", len(desc.Text)),
		)
		return desc, nil
	}
	if len(errs) == 0 {
		return Description{}, ErrNoDescription
	}
	return Description{}, fmt.Errorf("%w: %w", ErrNoDescription, errors.Join(errs...))
}
