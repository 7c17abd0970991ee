package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hray3182/pagecal/internal/database"
	"github.com/hray3182/pagecal/internal/models"
)

type DatabaseRepository struct {
	db *database.DB
}

func NewDatabaseRepository(db *database.DB) *DatabaseRepository {
	return &DatabaseRepository{db: db}
}

func (r *DatabaseRepository) Create(ctx context.Context, d *models.Database) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	props, err := marshalProperties(d.Properties)
	if err != nil {
		return err
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO databases (id, page_id, name, properties)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		d.ID, d.PageID, d.Name, props,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DatabaseRepository) GetByID(ctx context.Context, id string) (*models.Database, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	d := &models.Database{}
	var propsJSON []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id::text, page_id::text, name, properties, created_at, updated_at
		 FROM databases WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.PageID, &d.Name, &propsJSON, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(propsJSON, &d.Properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties of database %s: %w", d.ID, err)
	}
	return d, nil
}

func (r *DatabaseRepository) Update(ctx context.Context, d *models.Database) error {
	props, err := marshalProperties(d.Properties)
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx,
		`UPDATE databases SET name = $1, properties = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING updated_at`,
		d.Name, props, d.ID,
	).Scan(&d.UpdatedAt)
	return notFound(err)
}

// Delete removes the database and, by cascade, every page in it.
func (r *DatabaseRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM databases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
