// Package ai asks the Gemini API to estimate, per safety category, how likely
// a video is to contain that category of content. Classification is delegated
// entirely to the model; this package owns prompt construction and schema
// enforcement, and callers own defensive parsing of the response.
package ai

import (
	"context"
	"fmt"

	"prismora/internal/apperr"
	"prismora/shared/config"

	"google.golang.org/genai"
)

type Classifier struct {
	client *genai.Client
	model  string
}

func NewClassifier(cfg *config.AIConfig) (*Classifier, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Classifier{
		client: client,
		model:  cfg.Model,
	}, nil
}

// analysisSchema constrains the model to a five-key integer object so the
// response can be decoded without free-text cleanup in the common case.
var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"adultVisuals": {
			Type:        genai.TypeInteger,
			Description: "Percentage likelihood of containing visually explicit or suggestive content intended for mature audiences.",
		},
		"aggressiveBehavior": {
			Type:        genai.TypeInteger,
			Description: "Percentage likelihood of showcasing verbal aggression, physical altercations, or patterns of hostile behavior.",
		},
		"nonTraditionalRelationships": {
			Type:        genai.TypeInteger,
			Description: "Percentage likelihood of featuring or discussing relationship dynamics outside of traditional monogamous, heterosexual norms.",
		},
		"inappropriateLanguage": {
			Type:        genai.TypeInteger,
			Description: "Percentage likelihood of using profane, vulgar, or socially inappropriate language.",
		},
		"lgbtqRepresentation": {
			Type:        genai.TypeInteger,
			Description: "Percentage likelihood of including themes, discussions, or representations related to lesbian, gay, bisexual, transgender, and queer identities.",
		},
	},
	Required: []string{
		"adultVisuals",
		"aggressiveBehavior",
		"nonTraditionalRelationships",
		"inappropriateLanguage",
		"lgbtqRepresentation",
	},
}

// Classify sends the fixed instructional prompt for (title, channelName) and
// returns the model's raw JSON response text. A single attempt per call; any
// provider failure surfaces immediately.
func (c *Classifier) Classify(ctx context.Context, title, channelName string) (string, error) {
	prompt := buildPrompt(title, channelName)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema,
		Temperature:      genai.Ptr[float32](0.2),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", apperr.Wrap(apperr.Provider, "The AI model failed to generate a response.",
			fmt.Errorf("classification request failed for %q: %w", title, err))
	}

	text := result.Text()
	if text == "" {
		return "", apperr.Wrap(apperr.Provider, "The AI model failed to generate a response.",
			fmt.Errorf("empty classification response for %q", title))
	}

	return text, nil
}

func buildPrompt(title, channelName string) string {
	return fmt.Sprintf(`You are a highly sophisticated content moderation and analysis AI. Your task is to analyze the likely content of a YouTube video based on its title and channel name.

Video Title: %q
Channel Name: %q

Based on this information, evaluate the probability of the video containing content across the following five categories. Express this probability as an integer percentage from 0 to 100.

Your response must be a single, raw JSON object that strictly adheres to the provided schema. Do not include any explanatory text, markdown formatting like `+"```json"+`, or any characters outside of the JSON structure.`,
		title, channelName)
}
