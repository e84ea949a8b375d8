// Package scan runs the classification pipeline for one submitted input:
// identifier extraction, catalog lookup, AI classification and concern
// aggregation, in that strict order. Inputs that are not video links fall
// through to a catalog search.
package scan

import (
	"context"
	"fmt"
	"log"
	"strings"

	"prismora/internal/apperr"
	"prismora/internal/models"
	"prismora/internal/report"
	"prismora/internal/videoid"
)

// Catalog is the video lookup collaborator.
type Catalog interface {
	VideoDetails(ctx context.Context, id string) (*models.VideoDetails, error)
	Search(ctx context.Context, query string) ([]models.VideoDetails, error)
}

// Classifier returns the raw JSON classification text for a video's metadata.
type Classifier interface {
	Classify(ctx context.Context, title, channelName string) (string, error)
}

// Result is the outcome of one submission: either a completed analysis
// (Report set) or a page of search results for free-text input.
type Result struct {
	URL            string                 `json:"url,omitempty"`
	Details        *models.VideoDetails   `json:"videoDetails,omitempty"`
	Report         *models.AnalysisReport `json:"analysisResult,omitempty"`
	PrimaryConcern *report.Concern        `json:"primaryConcern,omitempty"`
	SearchResults  []models.VideoDetails  `json:"searchResults,omitempty"`
}

// IsSearch reports whether the input was treated as a search query.
func (r *Result) IsSearch() bool { return r.Report == nil }

type Pipeline struct {
	catalog    Catalog
	classifier Classifier
}

func NewPipeline(catalog Catalog, classifier Classifier) *Pipeline {
	return &Pipeline{catalog: catalog, classifier: classifier}
}

// Scan processes one raw input string. Each call is a single attempt: no
// retries, no caching, and two concurrent calls for the same input produce
// two independent provider calls.
func (p *Pipeline) Scan(ctx context.Context, input string) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, apperr.New(apperr.Input, "A video link or search query is required")
	}

	id, ok := videoid.Extract(input)
	if !ok {
		log.Printf("Treating input as search query: %q", input)
		results, err := p.catalog.Search(ctx, input)
		if err != nil {
			return nil, err
		}
		return &Result{SearchResults: results}, nil
	}

	details, err := p.catalog.VideoDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	return p.Analyze(ctx, details)
}

// Analyze classifies a video whose details are already known, e.g. one picked
// from search results.
func (p *Pipeline) Analyze(ctx context.Context, details *models.VideoDetails) (*Result, error) {
	log.Printf("Analyzing video %s: %s - %s", details.ID, details.Title, details.ChannelTitle)

	raw, err := p.classifier.Classify(ctx, details.Title, details.ChannelTitle)
	if err != nil {
		return nil, err
	}

	rep, err := report.Parse(raw, details.Title, details.ChannelTitle)
	if err != nil {
		return nil, err
	}

	concern := report.PrimaryConcern(rep)
	return &Result{
		URL:            fmt.Sprintf("https://www.youtube.com/watch?v=%s", details.ID),
		Details:        details,
		Report:         rep,
		PrimaryConcern: &concern,
	}, nil
}
