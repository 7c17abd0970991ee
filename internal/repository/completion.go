package repository

import (
	"context"
	"time"

	"github.com/hray3182/pagecal/internal/database"
	"github.com/hray3182/pagecal/internal/models"
	"github.com/hray3182/pagecal/internal/recurrence"
)

type CompletionRepository struct {
	db *database.DB
}

func NewCompletionRepository(db *database.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Mark sets the completion state of a page on one date, replacing any
// earlier log for that date.
func (r *CompletionRepository) Mark(ctx context.Context, pageID string, date recurrence.Date, completed bool) (*models.CompletionLog, error) {
	log := &models.CompletionLog{PageID: pageID, Date: date, Completed: completed}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO completion_logs (page_id, date, completed)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (page_id, date) DO UPDATE
		 SET completed = EXCLUDED.completed, updated_at = now()
		 RETURNING updated_at`,
		pageID, date.Time(), completed,
	).Scan(&log.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r *CompletionRepository) GetByPageID(ctx context.Context, pageID string) ([]*models.CompletionLog, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT page_id::text, date, completed, updated_at
		 FROM completion_logs WHERE page_id = $1
		 ORDER BY date ASC`,
		pageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanLogs(rows)
}

// GetByDateRange returns the logs of every page within [from, to].
func (r *CompletionRepository) GetByDateRange(ctx context.Context, from, to recurrence.Date) ([]*models.CompletionLog, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT page_id::text, date, completed, updated_at
		 FROM completion_logs WHERE date >= $1 AND date <= $2
		 ORDER BY date ASC`,
		from.Time(), to.Time(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanLogs(rows)
}

func (r *CompletionRepository) scanLogs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*models.CompletionLog, error) {
	var logs []*models.CompletionLog
	for rows.Next() {
		log := &models.CompletionLog{}
		var date time.Time
		if err := rows.Scan(&log.PageID, &date, &log.Completed, &log.UpdatedAt); err != nil {
			return nil, err
		}
		log.Date = recurrence.DateOf(date)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
