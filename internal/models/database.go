package models

import "time"

// PropertyDef declares a property pages of a database carry.
type PropertyDef struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

type Database struct {
	ID         string                 `json:"id"`
	PageID     *string                `json:"page_id"` // Parent page, nil for top level
	Name       string                 `json:"name"`
	Properties map[string]PropertyDef `json:"properties"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}
