// Package youtube is the catalog client: single-video metadata lookup and
// keyword search against the YouTube Data API. One attempt per call, no
// caching, no retries.
package youtube

import (
	"context"
	"errors"
	"fmt"

	"prismora/internal/apperr"
	"prismora/internal/models"
	"prismora/shared/config"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// searchPageSize is the fixed number of candidates returned per search, in
// the provider's relevance order.
const searchPageSize = 10

// ErrMissingThumbnail reports a video with no thumbnail variant at any
// supported resolution.
var ErrMissingThumbnail = apperr.New(apperr.Provider, "Could not find a thumbnail for this video.")

type Client struct {
	service *youtube.Service
}

// NewClient builds a catalog client. With an API key configured it talks to
// the API directly; otherwise it authenticates through the OAuth device flow
// with an on-disk token cache.
func NewClient(cfg *config.YouTubeConfig) (*Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		httpClient, err := newOAuthHTTPClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up OAuth credentials: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// VideoDetails fetches one video's title, channel and thumbnail.
func (c *Client) VideoDetails(ctx context.Context, id string) (*models.VideoDetails, error) {
	resp, err := c.service.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, providerError("Could not fetch video details from YouTube", err)
	}

	if len(resp.Items) == 0 {
		return nil, apperr.New(apperr.NotFound, "Video not found on YouTube.")
	}

	snippet := resp.Items[0].Snippet
	thumbnail := pickThumbnail(snippet.Thumbnails)
	if thumbnail == "" {
		return nil, ErrMissingThumbnail
	}

	return &models.VideoDetails{
		ID:           id,
		Title:        snippet.Title,
		ChannelTitle: snippet.ChannelTitle,
		ThumbnailURL: thumbnail,
	}, nil
}

// Search returns up to searchPageSize matching videos. No matches is an empty
// slice, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]models.VideoDetails, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(searchPageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, providerError("Could not perform search on YouTube", err)
	}

	results := make([]models.VideoDetails, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		results = append(results, models.VideoDetails{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: pickThumbnail(item.Snippet.Thumbnails),
		})
	}

	return results, nil
}

// pickThumbnail tries resolutions high, medium, default in that order and
// returns the first non-empty URL.
func pickThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

// providerError keeps the upstream API message in the user-facing text so the
// UI can explain quota and key problems.
func providerError(context string, err error) error {
	message := context
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		message = fmt.Sprintf("%s: %s", context, gerr.Message)
	}
	return apperr.Wrap(apperr.Provider, message, err)
}
