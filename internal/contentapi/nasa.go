package contentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

const (
	apodCacheTTL = 24 * time.Hour
	marsCacheTTL = 7 * 24 * time.Hour
	// demoKey has harsh rate limits but keeps the feature working
	// for installs that never configured a NASA key.
	demoKey = "DEMO_KEY"
)

// NASAClient serves the Astronomy Picture of the Day and Mars rover photos.
type NASAClient struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewNASAClient creates a NASA client backed by the shared cache.
// An empty apiKey falls back to NASA's public demo key.
func NewNASAClient(client *Client, apiKey string) *NASAClient {
	if apiKey == "" {
		apiKey = demoKey
	}
	return &NASAClient{client: client, baseURL: "https://api.nasa.gov", apiKey: apiKey}
}

// APOD returns the Astronomy Picture of the Day. An empty date requests
// today's picture; otherwise date must be YYYY-MM-DD.
func (n *NASAClient) APOD(ctx context.Context, date string) (*models.APOD, error) {
	params := url.Values{}
	params.Set("api_key", n.apiKey)
	if date != "" {
		params.Set("date", date)
	}

	body, err := n.client.Get(ctx, n.baseURL+"/planetary/apod?"+params.Encode(), nil, apodCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("apod request failed: %w", err)
	}

	var apod models.APOD
	if err := json.Unmarshal(body, &apod); err != nil {
		return nil, fmt.Errorf("failed to parse apod response: %w", err)
	}
	return &apod, nil
}

type marsPhotosResponse struct {
	Photos []struct {
		ID     int    `json:"id"`
		ImgSrc string `json:"img_src"`
		Earth  string `json:"earth_date"`
		Camera struct {
			Name string `json:"full_name"`
		} `json:"camera"`
	} `json:"photos"`
}

// MarsPhotos returns Curiosity rover photos for a Martian sol.
// A sol of zero requests sol 1000, which is known to have good coverage.
func (n *NASAClient) MarsPhotos(ctx context.Context, sol, limit int) ([]models.MarsPhoto, error) {
	if sol <= 0 {
		sol = 1000
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("api_key", n.apiKey)
	params.Set("sol", strconv.Itoa(sol))

	body, err := n.client.Get(ctx, n.baseURL+"/mars-photos/api/v1/rovers/curiosity/photos?"+params.Encode(), nil, marsCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("mars photos request failed: %w", err)
	}

	var resp marsPhotosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse mars photos response: %w", err)
	}

	if len(resp.Photos) > limit {
		resp.Photos = resp.Photos[:limit]
	}
	photos := make([]models.MarsPhoto, 0, len(resp.Photos))
	for _, p := range resp.Photos {
		photos = append(photos, models.MarsPhoto{
			ID:        p.ID,
			ImgSrc:    p.ImgSrc,
			EarthDate: p.Earth,
			Camera:    p.Camera.Name,
		})
	}
	return photos, nil
}
