package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hray3182/pagecal/internal/calendar"
	"github.com/hray3182/pagecal/internal/ical"
	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/rrule"
)

type markCompletedRequest struct {
	PageID    string `json:"page_id"`
	Date      string `json:"date"`
	Completed *bool  `json:"completed"`
}

// handleMarkCompleted records completion of one occurrence. Dates on which
// the page's schedule does not fire are rejected.
func (s *Server) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	var req markCompletedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := recurrence.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date %q", req.Date))
		return
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	page, err := s.pages.GetByID(r.Context(), req.PageID)
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	schedule, ok := s.pageSchedule(w, page)
	if !ok {
		return
	}
	if !schedule.OccursOn(date) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Page does not occur on %s", date))
		return
	}

	entry, err := s.completions.Mark(r.Context(), page.ID, date, completed)
	if err != nil {
		writeStoreError(w, "Completion log", err)
		return
	}
	writeOK(w, map[string]any{"log": entry})
}

// pageSchedule parses the page's date property, answering 400 when it is
// missing or invalid.
func (s *Server) pageSchedule(w http.ResponseWriter, page *models.Page) (recurrence.Schedule, bool) {
	schedule, found, err := page.Schedule()
	var verr *recurrence.ValidationError
	switch {
	case errors.As(err, &verr):
		prop, _ := page.DateProperty()
		writeValidationError(w, prop.ID, verr)
		return nil, false
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid date property: "+err.Error())
		return nil, false
	case !found:
		writeError(w, http.StatusBadRequest, "Page has no date")
		return nil, false
	}
	return schedule, true
}

// maxRangeDays bounds a single calendar or occurrence query.
const maxRangeDays = 2 * recurrence.DefaultHorizonDays

// parseRange reads start and end query parameters. Missing values fall
// back to the given defaults. Ranges longer than maxRangeDays are rejected.
func parseRange(r *http.Request, defStart, defEnd recurrence.Date) (recurrence.Date, recurrence.Date, error) {
	start, end := defStart, defEnd
	if raw := r.URL.Query().Get("start"); raw != "" {
		d, err := recurrence.ParseDate(raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid start %q", raw)
		}
		start = d
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		d, err := recurrence.ParseDate(raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid end %q", raw)
		}
		end = d
	}
	if end.Before(start) {
		return start, end, &recurrence.RangeError{Start: start, End: end}
	}
	if recurrence.DaysBetween(start, end)+1 > maxRangeDays {
		return start, end, fmt.Errorf("range %s to %s is longer than %d days", start, end, maxRangeDays)
	}
	return start, end, nil
}

// handleCalendar returns the occurrences of every dated page. Without
// start and end it returns the month grid of ?month=YYYY-MM, or of the
// current month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.today()

	anchor := today
	if raw := q.Get("month"); raw != "" {
		m, err := time.Parse("2006-01", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid month %q", raw))
			return
		}
		anchor = recurrence.DateOf(m)
	}
	gridStart, gridEnd := calendar.GridRange(anchor)
	withGrid := q.Get("start") == "" && q.Get("end") == ""

	start, end, err := parseRange(r, gridStart, gridEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pages, err := s.pages.GetDated(r.Context())
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	logs, err := s.completions.GetByDateRange(r.Context(), start, end)
	if err != nil {
		writeStoreError(w, "Completion log", err)
		return
	}
	items, err := calendar.Build(pages, logs, start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if items == nil {
		items = []calendar.Item{}
	}

	body := map[string]any{"start": start, "end": end, "items": items}
	if withGrid {
		body["month"] = calendar.BuildMonth(anchor, today, items)
	}
	writeOK(w, body)
}

// handleOccurrences expands one page. The default range is one year from
// today.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	schedule, ok := s.pageSchedule(w, page)
	if !ok {
		return
	}

	today := s.today()
	start, end, err := parseRange(r, today, today.AddDays(recurrence.DefaultHorizonDays-1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	occurrences, err := schedule.Occurrences(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logs, err := s.completions.GetByPageID(r.Context(), page.ID)
	if err != nil {
		writeStoreError(w, "Completion log", err)
		return
	}
	done := make(map[recurrence.Date]bool, len(logs))
	for _, l := range logs {
		done[l.Date] = l.Completed
	}

	items := make([]calendar.Item, len(occurrences))
	for i, o := range occurrences {
		items[i] = calendar.NewItem(page, o, schedule.Repeating(), done[o.Date])
	}

	body := map[string]any{
		"page_id":     page.ID,
		"start":       start,
		"end":         end,
		"repeating":   schedule.Repeating(),
		"occurrences": items,
	}
	if rule, ok := schedule.(recurrence.Rule); ok {
		body["rrule"] = rrule.FromRule(rule, s.loc).String()
		body["description"] = rrule.Describe(rule)
	}
	writeOK(w, body)
}

// handleValidateDate checks a date property value without storing it and
// returns its canonical form.
func (s *Server) handleValidateDate(w http.ResponseWriter, r *http.Request) {
	var v recurrence.DateValue
	if !decodeJSON(w, r, &v) {
		return
	}

	schedule, err := recurrence.ParseSchedule(v)
	var verr *recurrence.ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, "", verr)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body := map[string]any{
		"value":     recurrence.Canonical(schedule),
		"repeating": schedule.Repeating(),
	}
	if rule, ok := schedule.(recurrence.Rule); ok {
		body["description"] = rrule.Describe(rule)
		if next, ok := recurrence.Next(rule, s.today()); ok {
			body["next"] = next
		}
	}
	writeOK(w, body)
}

type parseRepetitionRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParseRepetition(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, "AI parsing is not configured")
		return
	}

	var req parseRepetitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	suggestion, err := s.parser.ParseRepetition(r.Context(), text, s.today())
	var verr *recurrence.ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, "", verr)
		return
	}
	if err != nil {
		log.Printf("Failed to parse repetition: %v", err)
		writeError(w, http.StatusBadGateway, "AI request failed")
		return
	}
	writeOK(w, map[string]any{"suggestion": suggestion})
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	pages, err := s.pages.GetDated(r.Context())
	if err != nil {
		writeStoreError(w, "Page", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="pagecal.ics"`)
	_, _ = w.Write([]byte(ical.Export(pages, s.loc, s.now())))
}
