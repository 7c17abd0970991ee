package api

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
)

type propertyInput struct {
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Value           json.RawMessage `json:"value"`
	Options         []string        `json:"options"`
	RichTextContent string          `json:"rich_text_content"`
}

type createPageRequest struct {
	DatabaseID string                   `json:"database_id"`
	Title      string                   `json:"title"`
	Properties map[string]propertyInput `json:"properties"`
}

type updatePageRequest struct {
	PageID  string `json:"page_id"`
	Updates struct {
		Title      *string                  `json:"title"`
		Properties map[string]propertyInput `json:"properties"`
	} `json:"updates"`
}

type pageIDRequest struct {
	PageID string `json:"page_id"`
}

// normalizeDateProperty validates a date property value and rewrites it in
// canonical form. Empty values are left alone.
func normalizeDateProperty(p *models.Property) error {
	if p.Type != models.PropertyDate || !p.HasValue() {
		return nil
	}
	v, err := p.DateValue()
	if err != nil {
		return &recurrence.ValidationError{Fields: []recurrence.FieldError{
			{Field: recurrence.FieldStartDate, Message: "date value is not a date string or object"},
		}}
	}
	schedule, err := recurrence.ParseSchedule(v)
	if err != nil {
		return err
	}
	canonical, err := json.Marshal(recurrence.Canonical(schedule))
	if err != nil {
		return err
	}
	p.Value = canonical
	return nil
}

// normalizeProperties validates every date property of page in id order,
// so the first failing id is reported. On failure it writes the response
// and returns false.
func normalizeProperties(w http.ResponseWriter, page *models.Page) bool {
	for _, id := range slices.Sorted(maps.Keys(page.Properties)) {
		p := page.Properties[id]
		err := normalizeDateProperty(&p)
		var verr *recurrence.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, id, verr)
			return false
		case err != nil:
			writeError(w, http.StatusBadRequest, err.Error())
			return false
		}
		page.Properties[id] = p
	}
	return true
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	page := &models.Page{
		Title:      strings.TrimSpace(req.Title),
		Properties: make(map[string]models.Property, len(req.Properties)),
	}
	if page.Title == "" {
		page.Title = "Untitled"
	}
	for id, p := range req.Properties {
		page.Properties[id] = models.Property{
			ID:              id,
			Name:            p.Name,
			Type:            p.Type,
			Value:           p.Value,
			Options:         p.Options,
			RichTextContent: p.RichTextContent,
		}
	}
	if !normalizeProperties(w, page) {
		return
	}

	if req.DatabaseID != "" {
		if _, err := s.databases.GetByID(r.Context(), req.DatabaseID); err != nil {
			writeStoreError(w, "Database", err)
			return
		}
		page.DatabaseID = &req.DatabaseID
	}

	if err := s.pages.Create(r.Context(), page); err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	writeOK(w, map[string]any{"page_id": page.ID})
}

// handleUpdatePage changes the title and the values of properties the page
// already has. Unknown property ids are ignored.
func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var req updatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	page, err := s.pages.GetByID(r.Context(), req.PageID)
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}

	for id, update := range req.Updates.Properties {
		p, ok := page.Properties[id]
		if !ok {
			continue
		}
		p.Value = update.Value
		if update.RichTextContent != "" {
			p.RichTextContent = update.RichTextContent
		}
		page.Properties[id] = p
	}
	if req.Updates.Title != nil {
		page.Title = *req.Updates.Title
	}
	if !normalizeProperties(w, page) {
		return
	}

	if err := s.pages.Update(r.Context(), page); err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	var req pageIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.pages.Delete(r.Context(), req.PageID); err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	logs, err := s.completions.GetByPageID(r.Context(), page.ID)
	if err != nil {
		writeStoreError(w, "Completion log", err)
		return
	}
	if logs == nil {
		logs = []*models.CompletionLog{}
	}
	writeOK(w, map[string]any{"page": page, "completion_logs": logs})
}
