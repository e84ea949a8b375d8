// Package report turns the classifier's raw JSON into a complete
// AnalysisReport and reduces a report to its primary concern.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"prismora/internal/apperr"
	"prismora/internal/models"
)

// Display labels for the five categories, in their fixed evaluation order.
const (
	LabelAdultVisuals                = "Adult Visuals"
	LabelAggressiveBehavior          = "Aggressive Behavior"
	LabelNonTraditionalRelationships = "Non-Traditional Relationships"
	LabelInappropriateLanguage       = "Inappropriate Language"
	LabelLGBTQRepresentation         = "LGBTQ+ Representation"
)

// Concern is the headline safety signal of a report: the single
// highest-scoring category and its percentage.
type Concern struct {
	Label      string `json:"label"`
	Percentage int    `json:"percentage"`
}

type category struct {
	label string
	score func(*models.AnalysisReport) int
}

// Fixed iteration order. PrimaryConcern depends on it for tie-breaking.
var categories = []category{
	{LabelAdultVisuals, func(r *models.AnalysisReport) int { return r.AdultVisuals }},
	{LabelAggressiveBehavior, func(r *models.AnalysisReport) int { return r.AggressiveBehavior }},
	{LabelNonTraditionalRelationships, func(r *models.AnalysisReport) int { return r.NonTraditionalRelationships }},
	{LabelInappropriateLanguage, func(r *models.AnalysisReport) int { return r.InappropriateLanguage }},
	{LabelLGBTQRepresentation, func(r *models.AnalysisReport) int { return r.LGBTQRepresentation }},
}

// PrimaryConcern selects the category with the strictly greatest score. On
// ties the category appearing earlier in the fixed order wins.
func PrimaryConcern(r *models.AnalysisReport) Concern {
	best := Concern{Label: categories[0].label, Percentage: categories[0].score(r)}
	for _, c := range categories[1:] {
		if s := c.score(r); s > best.Percentage {
			best = Concern{Label: c.label, Percentage: s}
		}
	}
	return best
}

// rawScores mirrors the classifier's response schema. Pointers distinguish a
// zero score from a missing field.
type rawScores struct {
	AdultVisuals                *int `json:"adultVisuals"`
	AggressiveBehavior          *int `json:"aggressiveBehavior"`
	NonTraditionalRelationships *int `json:"nonTraditionalRelationships"`
	InappropriateLanguage       *int `json:"inappropriateLanguage"`
	LGBTQRepresentation         *int `json:"lgbtqRepresentation"`
}

// Parse builds a complete AnalysisReport from the classifier's raw response
// text. The model is asked for bare JSON but occasionally still wraps it in a
// markdown code fence, so fences are stripped before decoding. Malformed JSON
// or a missing field fails the scan with no retry.
func Parse(raw, videoTitle, channelName string) (*models.AnalysisReport, error) {
	cleaned := stripCodeFences(raw)

	var scores rawScores
	if err := json.Unmarshal([]byte(cleaned), &scores); err != nil {
		return nil, apperr.Wrap(apperr.Provider, "The AI model returned an unreadable response.",
			fmt.Errorf("failed to unmarshal classification JSON %q: %w", cleaned, err))
	}

	missing := ""
	switch {
	case scores.AdultVisuals == nil:
		missing = "adultVisuals"
	case scores.AggressiveBehavior == nil:
		missing = "aggressiveBehavior"
	case scores.NonTraditionalRelationships == nil:
		missing = "nonTraditionalRelationships"
	case scores.InappropriateLanguage == nil:
		missing = "inappropriateLanguage"
	case scores.LGBTQRepresentation == nil:
		missing = "lgbtqRepresentation"
	}
	if missing != "" {
		return nil, apperr.Wrap(apperr.Provider, "The AI model returned an incomplete response.",
			fmt.Errorf("classification response missing field %s", missing))
	}

	return &models.AnalysisReport{
		VideoTitle:                  videoTitle,
		ChannelName:                 channelName,
		AdultVisuals:                clampPercent(*scores.AdultVisuals),
		AggressiveBehavior:          clampPercent(*scores.AggressiveBehavior),
		NonTraditionalRelationships: clampPercent(*scores.NonTraditionalRelationships),
		InappropriateLanguage:       clampPercent(*scores.InappropriateLanguage),
		LGBTQRepresentation:         clampPercent(*scores.LGBTQRepresentation),
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
