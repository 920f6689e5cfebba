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

const khanCacheTTL = 7 * 24 * time.Hour

// KhanClient searches Khan Academy videos and exercises.
type KhanClient struct {
	client  *Client
	baseURL string
}

// NewKhanClient creates a Khan Academy client backed by the shared cache.
func NewKhanClient(client *Client) *KhanClient {
	return &KhanClient{client: client, baseURL: "https://www.khanacademy.org/api/v1"}
}

type khanVideoResponse struct {
	Videos []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Duration    int    `json:"duration"`
	} `json:"videos"`
}

type khanExerciseResponse struct {
	Exercises []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Subject string `json:"subject"`
		URL     string `json:"url"`
	} `json:"exercises"`
}

// SearchVideos returns videos matching topic, optionally filtered by grade level.
func (k *KhanClient) SearchVideos(ctx context.Context, topic string, gradeLevel, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("query", topic)
	params.Set("limit", strconv.Itoa(limit))
	if gradeLevel > 0 {
		params.Set("grade_level", strconv.Itoa(gradeLevel))
	}

	body, err := k.client.Get(ctx, k.baseURL+"/videos?"+params.Encode(), nil, khanCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("khan video search failed: %w", err)
	}

	var resp khanVideoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse khan video response: %w", err)
	}

	videos := make([]models.Video, 0, len(resp.Videos))
	for _, v := range resp.Videos {
		videos = append(videos, models.Video{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			URL:         v.URL,
			Duration:    v.Duration,
			GradeLevel:  gradeLevel,
		})
	}
	return videos, nil
}

// VideoDetails returns a single video by its Khan Academy ID.
func (k *KhanClient) VideoDetails(ctx context.Context, videoID string) (*models.Video, error) {
	body, err := k.client.Get(ctx, k.baseURL+"/videos/"+url.PathEscape(videoID), nil, khanCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("khan video lookup failed: %w", err)
	}

	var video models.Video
	if err := json.Unmarshal(body, &video); err != nil {
		return nil, fmt.Errorf("failed to parse khan video response: %w", err)
	}
	return &video, nil
}

// Exercises returns interactive exercises for a subject.
func (k *KhanClient) Exercises(ctx context.Context, subject string, gradeLevel int) ([]models.Exercise, error) {
	params := url.Values{}
	params.Set("subject", subject)
	if gradeLevel > 0 {
		params.Set("grade_level", strconv.Itoa(gradeLevel))
	}

	body, err := k.client.Get(ctx, k.baseURL+"/exercises?"+params.Encode(), nil, khanCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("khan exercise search failed: %w", err)
	}

	var resp khanExerciseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse khan exercise response: %w", err)
	}

	exercises := make([]models.Exercise, 0, len(resp.Exercises))
	for _, e := range resp.Exercises {
		exercises = append(exercises, models.Exercise{
			ID:      e.ID,
			Title:   e.Title,
			Subject: e.Subject,
			URL:     e.URL,
		})
	}
	return exercises, nil
}
