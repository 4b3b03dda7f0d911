package description

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"

	"ytalbum/internal/services"
)

// VideoClient is the subset of the youtube client used here.
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
}

// APISource reads the description from the video metadata endpoint.
type APISource struct {
	Client VideoClient
}

// NewAPISource returns an API source backed by a youtube client with the
// given request timeout.
func NewAPISource(timeout time.Duration) APISource {
	return APISource{Client: &youtube.Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}}
}

func (s APISource) Name() string { return "api" }

// Fetch resolves the video and returns its description, title and author.
func (s APISource) Fetch(ctx context.Context, url string) (Description, error) {
	if s.Client == nil {
		return Description{}, services.Wrap(services.ErrConfiguration, "description", "api", "client not configured", nil)
	}
	video, err := s.Client.GetVideoContext(ctx, url)
	if err != nil {
		return Description{}, services.Wrap(apiErrorMarker(err), "description", "api", url, err)
	}
	return Description{
		Text:   video.Description,
		Title:  video.Title,
		Author: video.Author,
		Source: s.Name(),
	}, nil
}

func apiErrorMarker(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.ErrTimeout
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return services.ErrNotFound
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return services.ErrValidation
	}
	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return services.ErrNotFound
	}
	return services.ErrTransient
}
