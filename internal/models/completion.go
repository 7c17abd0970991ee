package models

import (
	"time"

	"github.com/hray3182/pagecal/internal/recurrence"
)

// CompletionLog records whether a page was done on one occurrence date.
// There is at most one log per page and date.
type CompletionLog struct {
	PageID    string          `json:"page_id"`
	Date      recurrence.Date `json:"date"`
	Completed bool            `json:"completed"`
	UpdatedAt time.Time       `json:"timestamp"`
}
