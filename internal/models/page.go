package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hray3182/pagecal/internal/recurrence"
)

// Property types a page or database can carry.
const (
	PropertyText   = "text"
	PropertyDate   = "date"
	PropertySelect = "select"
	PropertyNumber = "number"
	PropertyStatus = "status"
)

// Property is one typed field of a page. Value is kept as raw JSON because
// its shape depends on Type; date values decode into recurrence.DateValue.
type Property struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Value           json.RawMessage `json:"value,omitempty"`
	Options         []string        `json:"options,omitempty"`          // For select/status types
	RichTextContent string          `json:"rich_text_content,omitempty"` // For text types
}

// HasValue reports whether the property holds anything other than null.
func (p Property) HasValue() bool {
	v := string(p.Value)
	return v != "" && v != "null" && v != `""`
}

// DateValue decodes a date property value.
func (p Property) DateValue() (recurrence.DateValue, error) {
	var v recurrence.DateValue
	err := json.Unmarshal(p.Value, &v)
	return v, err
}

type Page struct {
	ID         string              `json:"id"`
	DatabaseID *string             `json:"database_id"`
	Title      string              `json:"title"`
	Properties map[string]Property `json:"properties"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// DateProperty returns the page's date property, choosing the lowest id
// when there are several.
func (p *Page) DateProperty() (Property, bool) {
	return p.firstOfType(PropertyDate)
}

// StatusProperty returns the page's status property, if any.
func (p *Page) StatusProperty() (Property, bool) {
	return p.firstOfType(PropertyStatus)
}

// Status returns the value of the page's status property, or "" when the
// page has none or it is not a string.
func (p *Page) Status() string {
	prop, ok := p.StatusProperty()
	if !ok || !prop.HasValue() {
		return ""
	}
	var status string
	if err := json.Unmarshal(prop.Value, &status); err != nil {
		return ""
	}
	return status
}

func (p *Page) firstOfType(typ string) (Property, bool) {
	ids := make([]string, 0, len(p.Properties))
	for id, prop := range p.Properties {
		if prop.Type == typ {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return Property{}, false
	}
	sort.Strings(ids)
	return p.Properties[ids[0]], true
}

// Schedule parses the page's date property. It returns false when the page
// has no date property or the property is empty.
func (p *Page) Schedule() (recurrence.Schedule, bool, error) {
	prop, ok := p.DateProperty()
	if !ok || !prop.HasValue() {
		return nil, false, nil
	}
	v, err := prop.DateValue()
	if err != nil {
		return nil, true, err
	}
	s, err := recurrence.ParseSchedule(v)
	if err != nil {
		return nil, true, err
	}
	return s, true, nil
}
