package repository

import (
	"context"
	"time"

	"github.com/hray3182/pagecal/internal/database"
)

const NotifyReminder = "reminder"

// NotificationRepository remembers which notifications were already sent.
type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Claim records a notification for pageID at the given instant. It returns
// false if the same notification was claimed before.
func (r *NotificationRepository) Claim(ctx context.Context, pageID, kind string, at time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO notifications_sent (page_id, kind, at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		pageID, kind, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release drops a claim so the notification can be sent again, e.g. after
// delivery failed.
func (r *NotificationRepository) Release(ctx context.Context, pageID, kind string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM notifications_sent WHERE page_id = $1 AND kind = $2 AND at = $3`,
		pageID, kind, at,
	)
	return err
}
