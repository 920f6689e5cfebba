package contentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

const wordsCacheTTL = 30 * 24 * time.Hour

// WordsClient looks up word definitions for vocabulary lessons.
type WordsClient struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewWordsClient creates a WordsAPI client backed by the shared cache.
// Without an API key, lookups return stub entries instead of failing so
// that vocabulary features degrade gracefully.
func NewWordsClient(client *Client, apiKey string) *WordsClient {
	return &WordsClient{client: client, baseURL: "https://wordsapiv1.p.rapidapi.com", apiKey: apiKey}
}

type wordsAPIResponse struct {
	Word    string `json:"word"`
	Results []struct {
		Definition string   `json:"definition"`
		Synonyms   []string `json:"synonyms"`
	} `json:"results"`
}

// Define returns the definition and synonyms for word.
func (w *WordsClient) Define(ctx context.Context, word string) (*models.WordDefinition, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, fmt.Errorf("word cannot be empty")
	}

	if w.apiKey == "" {
		return &models.WordDefinition{
			Word:        word,
			Definitions: []string{"Definition lookup requires a configured dictionary API key."},
			Stub:        true,
		}, nil
	}

	headers := map[string]string{
		"X-RapidAPI-Key":  w.apiKey,
		"X-RapidAPI-Host": "wordsapiv1.p.rapidapi.com",
	}
	body, err := w.client.Get(ctx, w.baseURL+"/words/"+url.PathEscape(word), headers, wordsCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("word lookup failed: %w", err)
	}

	var resp wordsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse word lookup response: %w", err)
	}

	def := &models.WordDefinition{Word: resp.Word}
	seen := make(map[string]bool)
	for _, r := range resp.Results {
		if r.Definition != "" {
			def.Definitions = append(def.Definitions, r.Definition)
		}
		for _, s := range r.Synonyms {
			if !seen[s] {
				seen[s] = true
				def.Synonyms = append(def.Synonyms, s)
			}
		}
	}
	return def, nil
}
