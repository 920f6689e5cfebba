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

const (
	openLibraryCacheTTL = 7 * 24 * time.Hour
	bookDetailsCacheTTL = 30 * 24 * time.Hour
)

// matureKeywords marks titles and subjects unsuitable for early grades.
var matureKeywords = []string{"adult", "mature", "teen", "young adult"}

// OpenLibraryClient searches the OpenLibrary catalog for the reading log.
type OpenLibraryClient struct {
	client   *Client
	baseURL  string
	coverURL string
}

// NewOpenLibraryClient creates an OpenLibrary client backed by the shared cache.
func NewOpenLibraryClient(client *Client) *OpenLibraryClient {
	return &OpenLibraryClient{
		client:   client,
		baseURL:  "https://openlibrary.org",
		coverURL: "https://covers.openlibrary.org",
	}
}

type openLibrarySearchResponse struct {
	Docs []struct {
		Key              string   `json:"key"`
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		CoverID          int      `json:"cover_i"`
		Subject          []string `json:"subject"`
	} `json:"docs"`
}

// SearchBooks returns catalog entries matching query by title, author or
// subject. A grade level of 3 or below filters out books tagged with mature
// audience keywords.
func (o *OpenLibraryClient) SearchBooks(ctx context.Context, query string, gradeLevel, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	body, err := o.client.Get(ctx, o.baseURL+"/search.json?"+params.Encode(), nil, openLibraryCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("openlibrary search failed: %w", err)
	}

	var resp openLibrarySearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse openlibrary response: %w", err)
	}

	books := make([]models.Book, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		if gradeLevel > 0 && gradeLevel <= 3 && isMature(doc.Title, doc.Subject) {
			continue
		}
		subjects := doc.Subject
		if len(subjects) > 5 {
			subjects = subjects[:5]
		}
		books = append(books, models.Book{
			Key:          doc.Key,
			Title:        doc.Title,
			Authors:      doc.AuthorName,
			FirstPublish: doc.FirstPublishYear,
			CoverURL:     o.coverImage(doc.CoverID),
			Subjects:     subjects,
		})
	}
	return books, nil
}

func isMature(title string, subjects []string) bool {
	title = strings.ToLower(title)
	for _, kw := range matureKeywords {
		if strings.Contains(title, kw) {
			return true
		}
		for _, s := range subjects {
			if strings.Contains(strings.ToLower(s), kw) {
				return true
			}
		}
	}
	return false
}

type openLibraryWorkResponse struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Subjects []string `json:"subjects"`
	Covers   []int    `json:"covers"`
}

// BookDetails returns a single work by its OpenLibrary key, e.g. "OL45883W".
func (o *OpenLibraryClient) BookDetails(ctx context.Context, workID string) (*models.Book, error) {
	body, err := o.client.Get(ctx, o.baseURL+"/works/"+url.PathEscape(workID)+".json", nil, bookDetailsCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("openlibrary book lookup failed: %w", err)
	}

	var resp openLibraryWorkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse openlibrary work response: %w", err)
	}

	book := &models.Book{
		Key:      resp.Key,
		Title:    resp.Title,
		Subjects: resp.Subjects,
	}
	if len(resp.Subjects) > 5 {
		book.Subjects = resp.Subjects[:5]
	}
	if len(resp.Covers) > 0 {
		book.CoverURL = o.coverImage(resp.Covers[0])
	}
	return book, nil
}

func (o *OpenLibraryClient) coverImage(coverID int) string {
	if coverID == 0 {
		return ""
	}
	return fmt.Sprintf("%s/b/id/%d-M.jpg", o.coverURL, coverID)
}
