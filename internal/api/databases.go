package api

import (
	"net/http"
	"strings"

	"github.com/hray3182/pagecal/internal/models"
)

type propertyDefInput struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

type databaseRequest struct {
	DatabaseID string                      `json:"database_id"`
	PageID     string                      `json:"page_id"`
	Name       string                      `json:"name"`
	Properties map[string]propertyDefInput `json:"properties"`
}

func propertyDefs(in map[string]propertyDefInput) map[string]models.PropertyDef {
	defs := make(map[string]models.PropertyDef, len(in))
	for id, p := range in {
		defs[id] = models.PropertyDef{ID: id, Name: p.Name, Type: p.Type, Options: p.Options}
	}
	return defs
}

func (s *Server) handleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d := &models.Database{
		Name:       strings.TrimSpace(req.Name),
		Properties: propertyDefs(req.Properties),
	}
	if d.Name == "" {
		d.Name = "Untitled Database"
	}
	if req.PageID != "" {
		if _, err := s.pages.GetByID(r.Context(), req.PageID); err != nil {
			writeStoreError(w, "Page", err)
			return
		}
		d.PageID = &req.PageID
	}

	if err := s.databases.Create(r.Context(), d); err != nil {
		writeStoreError(w, "Database", err)
		return
	}
	writeOK(w, map[string]any{"database_id": d.ID})
}

func (s *Server) handleUpdateDatabase(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := s.databases.GetByID(r.Context(), req.DatabaseID)
	if err != nil {
		writeStoreError(w, "Database", err)
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		d.Name = name
	}
	d.Properties = propertyDefs(req.Properties)

	if err := s.databases.Update(r.Context(), d); err != nil {
		writeStoreError(w, "Database", err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleDeleteDatabase(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.databases.Delete(r.Context(), req.DatabaseID); err != nil {
		writeStoreError(w, "Database", err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleGetDatabase(w http.ResponseWriter, r *http.Request) {
	d, err := s.databases.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "Database", err)
		return
	}
	pages, err := s.pages.GetByDatabaseID(r.Context(), d.ID)
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	if pages == nil {
		pages = []*models.Page{}
	}
	writeOK(w, map[string]any{"database": d, "pages": pages})
}
