package categories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// Repository handles category persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a categories repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const categoryColumns = `id, conference_id, name, COALESCE(description,''), created_at, updated_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var cat models.Category
	err := row.Scan(&cat.ID, &cat.ConferenceID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, cat *models.Category) error {
	const q = `INSERT INTO categories (id, conference_id, name, description)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, cat.ConferenceID, cat.Name, cat.Description).
		Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
}

// GetByID loads a category with its task links and member count, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	cat, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM person_categories WHERE category_id = $1`, id).Scan(&cat.MembersCount); err != nil {
		return nil, err
	}
	cat.TaskIDs, err = r.ListTaskIDs(ctx, id)
	return cat, err
}

// NameExists reports whether the conference already has a category with
// the given name.
func (r *Repository) NameExists(ctx context.Context, conferenceID uuid.UUID, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE conference_id = $1 AND name = $2)`,
		conferenceID, name).Scan(&exists)
	return exists, err
}

// ListByConference returns a conference's categories with member counts.
func (r *Repository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.conference_id, c.name, COALESCE(c.description,''), c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM person_categories pc WHERE pc.category_id = c.id)
		 FROM categories c WHERE c.conference_id = $1 ORDER BY c.name`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.ConferenceID, &cat.Name, &cat.Description,
			&cat.CreatedAt, &cat.UpdatedAt, &cat.MembersCount); err != nil {
			return nil, err
		}
		list = append(list, &cat)
	}
	return list, rows.Err()
}

// Update persists category name and description.
func (r *Repository) Update(ctx context.Context, cat *models.Category) error {
	const q = `UPDATE categories SET name = $2, description = NULLIF($3,''), updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, cat.ID, cat.Name, cat.Description).Scan(&cat.UpdatedAt)
}

// Delete removes a category; attendee links cascade, assignments stay.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListTaskIDs returns the tasks auto-assigned by a category.
func (r *Repository) ListTaskIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT task_id FROM category_tasks WHERE category_id = $1`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetTasks replaces a category's task links.
func (r *Repository) SetTasks(ctx context.Context, categoryID uuid.UUID, taskIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `DELETE FROM category_tasks WHERE category_id = $1`, categoryID); err != nil {
		return err
	}
	for _, tid := range taskIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO category_tasks (category_id, task_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			categoryID, tid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListMemberPersonIDs returns the attendees currently in a category.
func (r *Repository) ListMemberPersonIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT person_id FROM person_categories WHERE category_id = $1`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ValidTaskIDs filters the given IDs down to tasks that belong to the
// conference.
func (r *Repository) ValidTaskIDs(ctx context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM tasks WHERE conference_id = $1 AND id = ANY($2)`, conferenceID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
