package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one line of the task completion export.
type Row struct {
	PersonFirstName string
	PersonLastName  string
	UniqueCode      string
	TaskName        string
	Status          string
	CompletedAt     *time.Time
	Notes           string
}

// Repository reads report data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TaskCompletionRows returns every assignment in a conference joined
// with its attendee and task.
func (r *Repository) TaskCompletionRows(ctx context.Context, conferenceID uuid.UUID) ([]Row, error) {
	const q = `SELECT p.first_name, p.last_name, p.unique_code, t.name, pt.status,
			pt.completed_at, COALESCE(pt.notes,'')
		FROM person_tasks pt
		JOIN persons p ON p.id = pt.person_id
		JOIN tasks t ON t.id = pt.task_id
		WHERE t.conference_id = $1
		ORDER BY p.last_name, p.first_name, t.order_index`
	rows, err := r.pool.Query(ctx, q, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.PersonFirstName, &row.PersonLastName, &row.UniqueCode,
			&row.TaskName, &row.Status, &row.CompletedAt, &row.Notes); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
