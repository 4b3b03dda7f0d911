package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"ytalbum/internal/logging"
	"ytalbum/internal/services"
	"ytalbum/internal/services/command"
	"ytalbum/internal/tracklist"
)

// Metadata is a single "-metadata key=value" pair.
type Metadata struct {
	Key   string
	Value string
}

// CutRequest describes one output track.
type CutRequest struct {
	Source       string
	Output       string
	Start        int
	End          tracklist.Offset
	Codec        string
	Bitrate      string
	ID3v2Version int
	Metadata     []Metadata
}

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

// WithLogger sets the logger used for command output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "ffmpeg")
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    command.Executor
	logger  *slog.Logger
}

// New constructs an ffmpeg client. cutTimeoutSeconds bounds each cut; zero
// disables the limit.
func New(binary string, cutTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(cutTimeoutSeconds) * time.Second,
		exec:    command.Exec{},
		logger:  logging.NewComponentLogger(nil, "ffmpeg"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Cut extracts req's range from req.Source into req.Output.
func (c *Client) Cut(ctx context.Context, req CutRequest) error {
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "cut", "ffmpeg", "source and output required", nil)
	}
	if req.End.Valid && req.End.Seconds <= req.Start {
		return services.Wrap(services.ErrValidation, "cut", "ffmpeg",
			fmt.Sprintf("end %s not after start %s", req.End, tracklist.FormatSeconds(req.Start)), nil)
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "cut", "prepare output", filepath.Dir(req.Output), err)
	}

	cutCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		cutCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := BuildArgs(req)
	c.logger.DebugContext(ctx, "running ffmpeg",
		logging.String("command", shellescape.QuoteCommand(append([]string{c.binary}, args...))),
	)
	err := c.exec.Run(cutCtx, c.binary, args, func(line string) {
		c.logger.DebugContext(ctx, "ffmpeg output", logging.String("line", line))
	})
	if err != nil {
		_ = os.Remove(req.Output)
		switch {
		case errors.Is(cutCtx.Err(), context.DeadlineExceeded):
			return services.Wrap(services.ErrTimeout, "cut", "ffmpeg", fmt.Sprintf("exceeded %s", c.timeout), err)
		case cutCtx.Err() != nil:
			return services.Wrap(services.ErrCanceled, "cut", "ffmpeg", "", err)
		default:
			return services.Wrap(services.ErrExternalTool, "cut", "ffmpeg", req.Output, err)
		}
	}
	return nil
}

// BuildArgs returns the ffmpeg arguments for req. Video and source metadata
// are dropped so the output only carries audio and the tags given in req.
func BuildArgs(req CutRequest) []string {
	args := []string{
		"-loglevel", "error",
		"-y",
		"-i", req.Source,
		"-vn",
		"-map_metadata", "-1",
	}
	if req.Codec != "" {
		args = append(args, "-acodec", req.Codec)
	}
	if req.Bitrate != "" {
		args = append(args, "-ab", req.Bitrate)
	}
	if req.ID3v2Version > 0 {
		args = append(args, "-id3v2_version", strconv.Itoa(req.ID3v2Version))
	}
	for _, m := range req.Metadata {
		if strings.TrimSpace(m.Key) == "" {
			continue
		}
		args = append(args, "-metadata", m.Key+"="+m.Value)
	}
	args = append(args, "-ss", strconv.Itoa(req.Start))
	if req.End.Valid {
		args = append(args, "-to", strconv.Itoa(req.End.Seconds))
	}
	return append(args, outputArg(req.Output))
}

// outputArg keeps a relative output path from being parsed as an option.
func outputArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "." + string(filepath.Separator) + path
	}
	return path
}
