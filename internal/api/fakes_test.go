package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/pagecal/internal/ai"
	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/repository"
)

// memStore implements the page, database and completion stores in memory
// with the same cascade rules as the SQL schema.
type memStore struct {
	mu        sync.Mutex
	pages     map[string]*models.Page
	databases map[string]*models.Database
	logs      map[string]map[recurrence.Date]*models.CompletionLog
	order     []string
}

func newMemStore() *memStore {
	return &memStore{
		pages:     map[string]*models.Page{},
		databases: map[string]*models.Database{},
		logs:      map[string]map[recurrence.Date]*models.CompletionLog{},
	}
}

type memPages struct{ *memStore }
type memDatabases struct{ *memStore }
type memCompletions struct{ *memStore }

func clonePage(p *models.Page) *models.Page {
	c := *p
	c.Properties = make(map[string]models.Property, len(p.Properties))
	for k, v := range p.Properties {
		c.Properties[k] = v
	}
	return &c
}

func (m memPages) Create(_ context.Context, page *models.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page.ID == "" {
		page.ID = uuid.NewString()
	}
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	m.pages[page.ID] = clonePage(page)
	m.order = append(m.order, page.ID)
	return nil
}

func (m memPages) GetByID(_ context.Context, id string) (*models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePage(p), nil
}

func (m memPages) list(keep func(*models.Page) bool) []*models.Page {
	var out []*models.Page
	for _, id := range m.order {
		if p, ok := m.pages[id]; ok && keep(p) {
			out = append(out, clonePage(p))
		}
	}
	return out
}

func (m memPages) GetByDatabaseID(_ context.Context, databaseID string) ([]*models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(p *models.Page) bool {
		return p.DatabaseID != nil && *p.DatabaseID == databaseID
	}), nil
}

func (m memPages) GetDated(_ context.Context) ([]*models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(p *models.Page) bool {
		_, ok := p.DateProperty()
		return ok
	}), nil
}

func (m memPages) Update(_ context.Context, page *models.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[page.ID]; !ok {
		return repository.ErrNotFound
	}
	page.UpdatedAt = time.Now()
	m.pages[page.ID] = clonePage(page)
	return nil
}

func (m memPages) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.pages, id)
	delete(m.logs, id)
	return nil
}

func (m memDatabases) Create(_ context.Context, d *models.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	c := *d
	m.databases[d.ID] = &c
	return nil
}

func (m memDatabases) GetByID(_ context.Context, id string) (*models.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.databases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (m memDatabases) Update(_ context.Context, d *models.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.databases[d.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *d
	m.databases[d.ID] = &c
	return nil
}

func (m memDatabases) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.databases[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.databases, id)
	for pid, p := range m.pages {
		if p.DatabaseID != nil && *p.DatabaseID == id {
			delete(m.pages, pid)
			delete(m.logs, pid)
		}
	}
	return nil
}

func (m memCompletions) Mark(_ context.Context, pageID string, date recurrence.Date, completed bool) (*models.CompletionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logs[pageID] == nil {
		m.logs[pageID] = map[recurrence.Date]*models.CompletionLog{}
	}
	l := &models.CompletionLog{PageID: pageID, Date: date, Completed: completed, UpdatedAt: time.Now()}
	m.logs[pageID][date] = l
	return l, nil
}

func (m memCompletions) GetByPageID(_ context.Context, pageID string) ([]*models.CompletionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CompletionLog
	for _, l := range m.logs[pageID] {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m memCompletions) GetByDateRange(_ context.Context, from, to recurrence.Date) ([]*models.CompletionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CompletionLog
	for _, byDate := range m.logs {
		for d, l := range byDate {
			if !d.Before(from) && !d.After(to) {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

type stubParser struct {
	suggestion *ai.Suggestion
	err        error
	gotText    string
}

func (p *stubParser) ParseRepetition(_ context.Context, text string, _ recurrence.Date) (*ai.Suggestion, error) {
	p.gotText = text
	return p.suggestion, p.err
}
