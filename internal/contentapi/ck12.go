package contentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

const ck12CacheTTL = 7 * 24 * time.Hour

// CK12Client searches CK-12 flexbooks, simulations and practice content.
type CK12Client struct {
	client  *Client
	baseURL string
}

// NewCK12Client creates a CK-12 client backed by the shared cache.
func NewCK12Client(client *Client) *CK12Client {
	return &CK12Client{client: client, baseURL: "https://www.ck12.org/api/v1"}
}

type ck12ContentResponse struct {
	Content []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Subject string `json:"subject"`
		Type    string `json:"type"`
		URL     string `json:"url"`
	} `json:"content"`
}

// Search returns CK-12 content matching query, optionally filtered by
// subject and grade level.
func (c *CK12Client) Search(ctx context.Context, query, subject string, gradeLevel int) ([]models.ContentItem, error) {
	params := url.Values{}
	params.Set("query", query)
	if subject != "" {
		params.Set("subject", subject)
	}
	if gradeLevel > 0 {
		params.Set("grade_level", strconv.Itoa(gradeLevel))
	}

	body, err := c.client.Get(ctx, c.baseURL+"/content?"+params.Encode(), nil, ck12CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("ck12 search failed: %w", err)
	}

	var resp ck12ContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse ck12 response: %w", err)
	}

	items := make([]models.ContentItem, 0, len(resp.Content))
	for _, item := range resp.Content {
		items = append(items, models.ContentItem{
			ID:          item.ID,
			Title:       item.Title,
			Subject:     item.Subject,
			ContentType: normalizeContentType(item.Type),
			URL:         item.URL,
			GradeLevel:  gradeLevel,
		})
	}
	return items, nil
}

func normalizeContentType(raw string) string {
	raw = strings.ToLower(raw)
	switch {
	case strings.Contains(raw, "video"):
		return "video"
	case strings.Contains(raw, "interactive"), strings.Contains(raw, "simulation"),
		strings.Contains(raw, "problem"), strings.Contains(raw, "practice"):
		return "exercise"
	default:
		return "read"
	}
}
