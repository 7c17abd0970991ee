package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hray3182/pagecal/internal/database"
	"github.com/hray3182/pagecal/internal/models"
)

type PageRepository struct {
	db *database.DB
}

func NewPageRepository(db *database.DB) *PageRepository {
	return &PageRepository{db: db}
}

const pageColumns = `id::text, database_id::text, title, properties, created_at, updated_at`

func (r *PageRepository) Create(ctx context.Context, page *models.Page) error {
	if page.ID == "" {
		page.ID = uuid.NewString()
	}
	props, err := marshalProperties(page.Properties)
	if err != nil {
		return err
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO pages (id, database_id, title, properties)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		page.ID, page.DatabaseID, page.Title, props,
	).Scan(&page.CreatedAt, &page.UpdatedAt)
}

func (r *PageRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`,
		id,
	)
	page, err := scanPage(row)
	if err != nil {
		return nil, notFound(err)
	}
	return page, nil
}

func (r *PageRepository) GetByDatabaseID(ctx context.Context, databaseID string) ([]*models.Page, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE database_id = $1
		 ORDER BY created_at ASC`,
		databaseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPages(rows)
}

// GetDated returns every page that has at least one date property.
func (r *PageRepository) GetDated(ctx context.Context) ([]*models.Page, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE jsonb_path_exists(properties, '$.* ? (@.type == "date")')
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPages(rows)
}

// Search matches titles case-insensitively, exact matches first.
func (r *PageRepository) Search(ctx context.Context, keyword string) ([]*models.Page, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE title ILIKE $1
		 ORDER BY lower(title) = lower($2) DESC, created_at ASC`,
		"%"+keyword+"%", keyword,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPages(rows)
}

func (r *PageRepository) Update(ctx context.Context, page *models.Page) error {
	props, err := marshalProperties(page.Properties)
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx,
		`UPDATE pages SET title = $1, properties = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING updated_at`,
		page.Title, props, page.ID,
	).Scan(&page.UpdatedAt)
	return notFound(err)
}

// Delete removes the page; its completion logs go with it.
func (r *PageRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PageRepository) scanPages(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*models.Page, error) {
	var pages []*models.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func scanPage(row interface{ Scan(dest ...any) error }) (*models.Page, error) {
	page := &models.Page{}
	var propsJSON []byte
	if err := row.Scan(&page.ID, &page.DatabaseID, &page.Title, &propsJSON,
		&page.CreatedAt, &page.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(propsJSON, &page.Properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties of page %s: %w", page.ID, err)
	}
	if page.Properties == nil {
		page.Properties = map[string]models.Property{}
	}
	return page, nil
}

func marshalProperties[T any](props map[string]T) ([]byte, error) {
	if props == nil {
		props = map[string]T{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	return b, nil
}
