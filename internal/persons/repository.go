package persons

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// Repository handles attendee persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a persons repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const personColumns = `id, conference_id, first_name, last_name, COALESCE(email,''), COALESCE(telephone,''),
	unique_code, hashed_unique_code, is_active, registered_by, created_at, updated_at`

func scanPerson(row pgx.Row) (*models.Person, error) {
	var p models.Person
	err := row.Scan(&p.ID, &p.ConferenceID, &p.FirstName, &p.LastName, &p.Email, &p.Telephone,
		&p.UniqueCode, &p.HashedUniqueCode, &p.IsActive, &p.RegisteredBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts an attendee.
func (r *Repository) Create(ctx context.Context, p *models.Person) error {
	const q = `INSERT INTO persons
		(id, conference_id, first_name, last_name, email, telephone, unique_code, hashed_unique_code, registered_by)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, $8)
		RETURNING id, is_active, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.ConferenceID, p.FirstName, p.LastName, p.Email, p.Telephone,
		p.UniqueCode, p.HashedUniqueCode, p.RegisteredBy).
		Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID loads an attendee with category links, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p, err := scanPerson(r.pool.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CategoryIDs, err = r.ListCategoryIDs(ctx, p.ID)
	return p, err
}

// GetByHashedCode resolves an attendee from a scanned badge code, or nil.
func (r *Repository) GetByHashedCode(ctx context.Context, hashed string) (*models.Person, error) {
	p, err := scanPerson(r.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE hashed_unique_code = $1`, hashed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CategoryIDs, err = r.ListCategoryIDs(ctx, p.ID)
	return p, err
}

// CodeExists reports whether an attendee code is already taken.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM persons WHERE unique_code = $1)`, code).Scan(&exists)
	return exists, err
}

// ListFilter narrows attendee listings.
type ListFilter struct {
	ActiveOnly bool
	CategoryID *uuid.UUID
	Search     string
}

// ListByConference returns a conference's attendees.
func (r *Repository) ListByConference(ctx context.Context, conferenceID uuid.UUID, filter ListFilter) ([]*models.Person, error) {
	q := `SELECT ` + personColumns + ` FROM persons WHERE conference_id = $1`
	args := []any{conferenceID}
	if filter.ActiveOnly {
		q += ` AND is_active`
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		q += ` AND id IN (SELECT person_id FROM person_categories WHERE category_id = $2)`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		q += ` AND (first_name ILIKE $` + n + ` OR last_name ILIKE $` + n + `)`
	}
	q += ` ORDER BY last_name, first_name`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update persists mutable attendee fields.
func (r *Repository) Update(ctx context.Context, p *models.Person) error {
	const q = `UPDATE persons SET first_name = $2, last_name = $3, email = NULLIF($4,''),
		telephone = NULLIF($5,''), is_active = $6, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, p.ID, p.FirstName, p.LastName, p.Email, p.Telephone, p.IsActive).
		Scan(&p.UpdatedAt)
}

// Delete removes an attendee; links and assignments cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListCategoryIDs returns the categories an attendee belongs to.
func (r *Repository) ListCategoryIDs(ctx context.Context, personID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT category_id FROM person_categories WHERE person_id = $1`, personID)
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

// ValidCategoryIDs filters the given IDs down to categories that belong
// to the conference.
func (r *Repository) ValidCategoryIDs(ctx context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM categories WHERE conference_id = $1 AND id = ANY($2)`, conferenceID, ids)
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

// SetCategories replaces an attendee's category links.
func (r *Repository) SetCategories(ctx context.Context, personID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `DELETE FROM person_categories WHERE person_id = $1`, personID); err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO person_categories (person_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			personID, cid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
