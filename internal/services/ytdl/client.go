package ytdl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"ytalbum/internal/logging"
	"ytalbum/internal/services"
	"ytalbum/internal/services/command"
)

// Format identifies a youtube-dl format selection.
type Format struct {
	ID    string
	Ext   string
	Label string
}

// Fallback is used when the preferred audio-only format is not listed.
var Fallback = Format{ID: "best", Ext: "mp4", Label: "best video"}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec command.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger used for command and progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "youtube-dl")
	}
}

// WithExtraArgs adds arguments placed before every invocation's own flags.
func WithExtraArgs(args []string) Option {
	return func(c *Client) {
		c.extraArgs = append([]string(nil), args...)
	}
}

// WithPreferred sets the audio-only format chosen when listed.
func WithPreferred(id, ext string) Option {
	return func(c *Client) {
		if strings.TrimSpace(id) != "" {
			c.preferred = Format{ID: strings.TrimSpace(id), Ext: strings.TrimSpace(ext), Label: preferredLabel(id)}
		}
	}
}

// Client wraps youtube-dl CLI interactions.
type Client struct {
	binary    string
	timeout   time.Duration
	extraArgs []string
	preferred Format
	exec      command.Executor
	logger    *slog.Logger
}

// New constructs a youtube-dl client. downloadTimeoutSeconds bounds a single
// download; zero disables the limit.
func New(binary string, downloadTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("youtube-dl binary required")
	}
	client := &Client{
		binary:    binary,
		timeout:   time.Duration(downloadTimeoutSeconds) * time.Second,
		preferred: Format{ID: "140", Ext: "m4a", Label: preferredLabel("140")},
		exec:      command.Exec{},
		logger:    logging.NewComponentLogger(nil, "youtube-dl"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ListFormats runs "youtube-dl -F" and returns the raw listing.
func (c *Client) ListFormats(ctx context.Context, url string) (string, error) {
	args := c.args("-F", url)
	c.logCommand(ctx, args)
	out, err := command.Capture(ctx, c.exec, c.binary, args)
	if err != nil {
		return "", c.wrap(ctx, "list formats", err)
	}
	return out, nil
}

// SelectFormat picks the preferred audio-only format when the listing offers
// it and falls back to the best combined format otherwise.
func (c *Client) SelectFormat(listing string) Format {
	if c.preferred.ID != "" && HasFormat(listing, c.preferred.ID, c.preferred.Ext) {
		return c.preferred
	}
	return Fallback
}

// HasFormat reports whether a "-F" listing contains a row whose first two
// columns are id and ext. An empty ext matches any extension.
func HasFormat(listing, id, ext string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != id {
			continue
		}
		if ext == "" || strings.EqualFold(fields[1], ext) {
			return true
		}
	}
	return false
}

// Download fetches format of url into dest, creating dest's directory.
func (c *Client) Download(ctx context.Context, url string, format Format, dest string) error {
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "download", "youtube-dl", "destination required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "prepare destination", filepath.Dir(dest), err)
	}
	formatID := format.ID
	if formatID == "" {
		formatID = Fallback.ID
	}

	downloadCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		downloadCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.args("-f", formatID, "-o", dest, url)
	c.logCommand(ctx, args)
	err := c.exec.Run(downloadCtx, c.binary, args, func(line string) {
		c.logger.DebugContext(ctx, "youtube-dl output", logging.String("line", line))
	})
	if err != nil {
		return c.wrap(downloadCtx, "download", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "download", "youtube-dl", "no output file at "+dest, err)
	}
	return nil
}

func (c *Client) args(args ...string) []string {
	out := make([]string, 0, len(c.extraArgs)+len(args))
	out = append(out, c.extraArgs...)
	return append(out, args...)
}

func (c *Client) logCommand(ctx context.Context, args []string) {
	c.logger.DebugContext(ctx, "running youtube-dl",
		logging.String("command", shellescape.QuoteCommand(append([]string{c.binary}, args...))),
	)
}

func (c *Client) wrap(ctx context.Context, operation string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "download", operation, fmt.Sprintf("youtube-dl exceeded %s", c.timeout), err)
	case ctx.Err() != nil:
		return services.Wrap(services.ErrCanceled, "download", operation, "", err)
	default:
		return services.Wrap(services.ErrExternalTool, "download", operation, c.binary, err)
	}
}

func preferredLabel(id string) string {
	if strings.TrimSpace(id) == "140" {
		return "132k audio"
	}
	return "format " + strings.TrimSpace(id)
}
