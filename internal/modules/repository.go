package modules

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
)

// ErrNotFound is returned when the module does not exist in the course.
var ErrNotFound = errors.New("module not found")

const moduleColumns = `id, course_id, title, content, image_key, created_at, updated_at`

// Repository handles module persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a module repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the modules of a course in creation order.
func (r *Repository) List(ctx context.Context, courseID uuid.UUID) ([]models.Module, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+moduleColumns+` FROM modules WHERE course_id = $1 ORDER BY created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Content, &m.ImageKey, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Get returns a module scoped to its course.
func (r *Repository) Get(ctx context.Context, courseID, id uuid.UUID) (*models.Module, error) {
	var m models.Module
	err := r.pool.QueryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = $1 AND course_id = $2`, id, courseID).
		Scan(&m.ID, &m.CourseID, &m.Title, &m.Content, &m.ImageKey, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a module.
func (r *Repository) Create(ctx context.Context, m *models.Module) error {
	return r.pool.QueryRow(ctx, `INSERT INTO modules (course_id, title, content) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, m.CourseID, m.Title, m.Content).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// Update changes a module's title and content.
func (r *Repository) Update(ctx context.Context, m *models.Module) error {
	return r.pool.QueryRow(ctx, `UPDATE modules SET title = $3, content = $4, updated_at = NOW()
		WHERE id = $1 AND course_id = $2 RETURNING updated_at`, m.ID, m.CourseID, m.Title, m.Content).
		Scan(&m.UpdatedAt)
}

// SetImage records the storage key of the module's image.
func (r *Repository) SetImage(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE modules SET image_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	return err
}

// Delete removes a module.
func (r *Repository) Delete(ctx context.Context, courseID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
