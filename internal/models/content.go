package models

// Video represents an external educational video (Khan Academy)
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Duration    int    `json:"duration,omitempty"` // seconds
	GradeLevel  int    `json:"gradeLevel,omitempty"`
}

// Exercise represents an external interactive exercise (Khan Academy)
type Exercise struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject,omitempty"`
	URL     string `json:"url"`
}

// ContentItem represents a generic external content result (CK-12)
type ContentItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject,omitempty"`
	ContentType string `json:"contentType,omitempty"` // read, video, exercise
	URL         string `json:"url"`
	GradeLevel  int    `json:"gradeLevel,omitempty"`
}

// APOD represents NASA's Astronomy Picture of the Day
type APOD struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
	MediaType   string `json:"media_type"`
}

// MarsPhoto represents a Mars rover photo
type MarsPhoto struct {
	ID        int    `json:"id"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
	Camera    string `json:"camera,omitempty"`
}

// Book represents an OpenLibrary search result
type Book struct {
	Key          string   `json:"key"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors,omitempty"`
	FirstPublish int      `json:"firstPublishYear,omitempty"`
	CoverURL     string   `json:"coverUrl,omitempty"`
	Subjects     []string `json:"subjects,omitempty"`
}

// WordDefinition represents a dictionary lookup result
type WordDefinition struct {
	Word        string   `json:"word"`
	Definitions []string `json:"definitions"`
	Synonyms    []string `json:"synonyms,omitempty"`
	Stub        bool     `json:"stub,omitempty"` // true when served without an API key
}
