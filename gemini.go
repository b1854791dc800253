package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

// clueWriter writes crossword clues for bare answers.
type clueWriter interface {
	SuggestClues(ctx context.Context, answers []string) (map[string]string, error)
}

// GeminiClient wraps the Google GenAI client for VertexAI.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a client using Application Default Credentials.
// Set GOOGLE_APPLICATION_CREDENTIALS to the service account key file path.
func NewGeminiClient(ctx context.Context, projectID, region string) (*GeminiClient, error) {
	if region == "" {
		region = defaultRegion
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: defaultModel,
	}, nil
}

// Close releases resources held by the client.
func (g *GeminiClient) Close() error {
	return nil
}

const cluePrompt = `Tu rédiges des définitions de mots croisés.

Pour chaque réponse de la liste ci-dessous, écris une définition courte
(moins de 60 caractères) qui ne contient pas la réponse elle-même.

Réponds au format JSON suivant :
{
  "clues": [
    {"answer": "<RÉPONSE>", "clue": "<définition>"},
    ...
  ]
}

Réponds UNIQUEMENT avec le JSON, sans commentaire ni markdown.

Réponses :
`

// SuggestClues asks Gemini for one clue per answer. The result is keyed by the
// upper-cased answer; answers Gemini skipped are absent.
func (g *GeminiClient) SuggestClues(ctx context.Context, answers []string) (map[string]string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: cluePrompt + strings.Join(answers, "\n")},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.7)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}
	return parseClueResponse(text)
}

func parseClueResponse(text string) (map[string]string, error) {
	var out struct {
		Clues []struct {
			Answer string `json:"answer"`
			Clue   string `json:"clue"`
		} `json:"clues"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("parse clues JSON: %w\nraw response: %s", err, text)
	}

	clues := make(map[string]string, len(out.Clues))
	for _, c := range out.Clues {
		answer := strings.ToUpper(strings.TrimSpace(c.Answer))
		clue := strings.TrimSpace(c.Clue)
		if answer == "" || clue == "" {
			continue
		}
		clues[answer] = clue
	}
	return clues, nil
}
