package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/repository"
)

type PageStore interface {
	Create(ctx context.Context, page *models.Page) error
	GetByID(ctx context.Context, id string) (*models.Page, error)
	GetByDatabaseID(ctx context.Context, databaseID string) ([]*models.Page, error)
	GetDated(ctx context.Context) ([]*models.Page, error)
	Update(ctx context.Context, page *models.Page) error
	Delete(ctx context.Context, id string) error
}

type DatabaseStore interface {
	Create(ctx context.Context, d *models.Database) error
	GetByID(ctx context.Context, id string) (*models.Database, error)
	Update(ctx context.Context, d *models.Database) error
	Delete(ctx context.Context, id string) error
}

type CompletionStore interface {
	Mark(ctx context.Context, pageID string, date recurrence.Date, completed bool) (*models.CompletionLog, error)
	GetByPageID(ctx context.Context, pageID string) ([]*models.CompletionLog, error)
	GetByDateRange(ctx context.Context, from, to recurrence.Date) ([]*models.CompletionLog, error)
}

// RepetitionParser turns free text into a date property.
type RepetitionParser interface {
	ParseRepetition(ctx context.Context, text string, today recurrence.Date) (*ai.Suggestion, error)
}

type Server struct {
	pages       PageStore
	databases   DatabaseStore
	completions CompletionStore
	parser      RepetitionParser
	loc         *time.Location
	now         func() time.Time
	mux         *http.ServeMux
}

// New builds the HTTP API. parser may be nil, in which case
// /api/parse_repetition answers 503.
func New(pages PageStore, databases DatabaseStore, completions CompletionStore, parser RepetitionParser, loc *time.Location) *Server {
	s := &Server{
		pages:       pages,
		databases:   databases,
		completions: completions,
		parser:      parser,
		loc:         loc,
		now:         time.Now,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/create_database", s.handleCreateDatabase)
	s.mux.HandleFunc("POST /api/update_database", s.handleUpdateDatabase)
	s.mux.HandleFunc("POST /api/delete_database", s.handleDeleteDatabase)
	s.mux.HandleFunc("GET /api/get_database_data/{id}", s.handleGetDatabase)

	s.mux.HandleFunc("POST /api/create_page", s.handleCreatePage)
	s.mux.HandleFunc("POST /api/update_page", s.handleUpdatePage)
	s.mux.HandleFunc("POST /api/delete_page", s.handleDeletePage)
	s.mux.HandleFunc("GET /api/get_page_data/{id}", s.handleGetPage)

	s.mux.HandleFunc("POST /api/mark_completed", s.handleMarkCompleted)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/occurrences/{id}", s.handleOccurrences)
	s.mux.HandleFunc("POST /api/validate_date", s.handleValidateDate)
	s.mux.HandleFunc("POST /api/parse_repetition", s.handleParseRepetition)

	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
}

func (s *Server) today() recurrence.Date {
	return recurrence.DateOf(s.now().In(s.loc))
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	body["success"] = status < 400
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, body map[string]any) {
	if body == nil {
		body = map[string]any{}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeValidationError answers 400 with every failing field of a date
// property.
func writeValidationError(w http.ResponseWriter, propertyID string, verr *recurrence.ValidationError) {
	body := map[string]any{
		"error":  verr.Error(),
		"fields": verr.Fields,
	}
	if propertyID != "" {
		body["property_id"] = propertyID
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// writeStoreError maps repository errors onto responses. what names the
// missing entity, e.g. "Page".
func writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	log.Printf("Failed to access %s: %v", what, err)
	writeError(w, http.StatusInternalServerError, "Internal error")
}
