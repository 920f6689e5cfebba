package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
)

// KhanAPI searches Khan Academy content.
type KhanAPI interface {
	SearchVideos(ctx context.Context, topic string, gradeLevel, limit int) ([]models.Video, error)
	VideoDetails(ctx context.Context, videoID string) (*models.Video, error)
	Exercises(ctx context.Context, subject string, gradeLevel int) ([]models.Exercise, error)
}

// CK12API searches CK-12 content.
type CK12API interface {
	Search(ctx context.Context, query, subject string, gradeLevel int) ([]models.ContentItem, error)
}

// NASAAPI serves NASA imagery.
type NASAAPI interface {
	APOD(ctx context.Context, date string) (*models.APOD, error)
	MarsPhotos(ctx context.Context, sol, limit int) ([]models.MarsPhoto, error)
}

// BookAPI searches the OpenLibrary catalog.
type BookAPI interface {
	SearchBooks(ctx context.Context, query string, gradeLevel, limit int) ([]models.Book, error)
	BookDetails(ctx context.Context, workID string) (*models.Book, error)
}

// DictionaryAPI looks up word definitions.
type DictionaryAPI interface {
	Define(ctx context.Context, word string) (*models.WordDefinition, error)
}

// ContentHandler exposes the external content providers to authenticated users.
type ContentHandler struct {
	BaseHandler
	khan       KhanAPI
	ck12       CK12API
	nasa       NASAAPI
	books      BookAPI
	dictionary DictionaryAPI
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(khan KhanAPI, ck12 CK12API, nasa NASAAPI, books BookAPI, dictionary DictionaryAPI, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler: BaseHandler{Logger: logger},
		khan:        khan,
		ck12:        ck12,
		nasa:        nasa,
		books:       books,
		dictionary:  dictionary,
	}
}

// RegisterRoutes registers content discovery routes.
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Get("/videos", h.SearchVideos)
		r.Get("/videos/{id}", h.GetVideo)
		r.Get("/exercises", h.ListExercises)
		r.Get("/library", h.SearchCK12)
		r.Get("/apod", h.GetAPOD)
		r.Get("/mars-photos", h.GetMarsPhotos)
		r.Get("/books", h.SearchBooks)
		r.Get("/books/{workId}", h.GetBookDetails)
		r.Get("/words/{word}", h.DefineWord)
	})
}

// SearchVideos godoc
// @Summary Search Khan Academy videos
// @Tags content
// @Produce json
// @Param topic query string true "Search topic"
// @Param gradeLevel query int false "Grade level filter"
// @Param limit query int false "Max results"
// @Success 200 {array} models.Video
// @Failure 502 {object} map[string]string
// @Router /content/videos [get]
func (h *ContentHandler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		h.RespondError(w, http.StatusBadRequest, "topic is required")
		return
	}
	gradeLevel, _ := strconv.Atoi(r.URL.Query().Get("gradeLevel"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	videos, err := h.khan.SearchVideos(r.Context(), topic, gradeLevel, limit)
	if err != nil {
		h.Logger.Error("video search failed", zap.String("topic", topic), zap.Error(err))
		h.RespondError(w, http.StatusBadGateway, "video search is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, videos)
}

// GetVideo godoc
// @Summary Get a Khan Academy video by ID
// @Tags content
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} models.Video
// @Failure 502 {object} map[string]string
// @Router /content/videos/{id} [get]
func (h *ContentHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := h.khan.VideoDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "video lookup is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, video)
}

// ListExercises godoc
// @Summary List Khan Academy exercises for a subject
// @Tags content
// @Produce json
// @Param subject query string true "Subject name"
// @Param gradeLevel query int false "Grade level filter"
// @Success 200 {array} models.Exercise
// @Failure 502 {object} map[string]string
// @Router /content/exercises [get]
func (h *ContentHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		h.RespondError(w, http.StatusBadRequest, "subject is required")
		return
	}
	gradeLevel, _ := strconv.Atoi(r.URL.Query().Get("gradeLevel"))

	exercises, err := h.khan.Exercises(r.Context(), subject, gradeLevel)
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "exercise search is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, exercises)
}

// SearchCK12 godoc
// @Summary Search CK-12 reading and practice content
// @Tags content
// @Produce json
// @Param query query string true "Search query"
// @Param subject query string false "Subject filter"
// @Param gradeLevel query int false "Grade level filter"
// @Success 200 {array} models.ContentItem
// @Failure 502 {object} map[string]string
// @Router /content/library [get]
func (h *ContentHandler) SearchCK12(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		h.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}
	gradeLevel, _ := strconv.Atoi(r.URL.Query().Get("gradeLevel"))

	items, err := h.ck12.Search(r.Context(), query, r.URL.Query().Get("subject"), gradeLevel)
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "content search is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, items)
}

// GetAPOD godoc
// @Summary Get NASA's Astronomy Picture of the Day
// @Tags content
// @Produce json
// @Param date query string false "Picture date (YYYY-MM-DD)"
// @Success 200 {object} models.APOD
// @Failure 502 {object} map[string]string
// @Router /content/apod [get]
func (h *ContentHandler) GetAPOD(w http.ResponseWriter, r *http.Request) {
	apod, err := h.nasa.APOD(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "astronomy picture is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, apod)
}

// GetMarsPhotos godoc
// @Summary Get Curiosity rover photos
// @Tags content
// @Produce json
// @Param sol query int false "Martian sol"
// @Param limit query int false "Max results"
// @Success 200 {array} models.MarsPhoto
// @Failure 502 {object} map[string]string
// @Router /content/mars-photos [get]
func (h *ContentHandler) GetMarsPhotos(w http.ResponseWriter, r *http.Request) {
	sol, _ := strconv.Atoi(r.URL.Query().Get("sol"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	photos, err := h.nasa.MarsPhotos(r.Context(), sol, limit)
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "rover photos are temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, photos)
}

// SearchBooks godoc
// @Summary Search the OpenLibrary catalog
// @Tags content
// @Produce json
// @Param query query string true "Search query"
// @Param gradeLevel query int false "Grade level filter"
// @Param limit query int false "Max results"
// @Success 200 {array} models.Book
// @Failure 502 {object} map[string]string
// @Router /content/books [get]
func (h *ContentHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		h.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}
	gradeLevel, _ := strconv.Atoi(r.URL.Query().Get("gradeLevel"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	books, err := h.books.SearchBooks(r.Context(), query, gradeLevel, limit)
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "book search is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, books)
}

// GetBookDetails godoc
// @Summary Get an OpenLibrary work by key
// @Tags content
// @Produce json
// @Param workId path string true "OpenLibrary work ID"
// @Success 200 {object} models.Book
// @Failure 502 {object} map[string]string
// @Router /content/books/{workId} [get]
func (h *ContentHandler) GetBookDetails(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.BookDetails(r.Context(), chi.URLParam(r, "workId"))
	if err != nil {
		h.RespondError(w, http.StatusBadGateway, "book lookup is temporarily unavailable")
		return
	}
	h.RespondJSON(w, http.StatusOK, book)
}

// DefineWord godoc
// @Summary Look up a word definition
// @Tags content
// @Produce json
// @Param word path string true "Word to define"
// @Success 200 {object} models.WordDefinition
// @Failure 502 {object} map[string]string
// @Router /content/words/{word} [get]
func (h *ContentHandler) DefineWord(w http.ResponseWriter, r *http.Request) {
	def, err := h.dictionary.Define(r.Context(), chi.URLParam(r, "word"))
	if err != nil {
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}
	h.RespondJSON(w, http.StatusOK, def)
}
