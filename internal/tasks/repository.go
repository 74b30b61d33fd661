package tasks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// Repository handles task and assignment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tasks repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, conference_id, name, COALESCE(description,''), is_required, is_active,
	start_at, due_at, order_index, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ConferenceID, &t.Name, &t.Description, &t.IsRequired, &t.IsActive,
		&t.StartAt, &t.DueAt, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a task. When OrderIndex is zero the task is appended
// after the conference's current maximum.
func (r *Repository) Create(ctx context.Context, t *models.Task) error {
	const q = `INSERT INTO tasks
		(id, conference_id, name, description, is_required, start_at, due_at, order_index)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, $5, $6,
			CASE WHEN $7 > 0 THEN $7
			ELSE (SELECT COALESCE(MAX(order_index), 0) + 1 FROM tasks WHERE conference_id = $1) END)
		RETURNING id, is_active, order_index, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.ConferenceID, t.Name, t.Description, t.IsRequired,
		t.StartAt, t.DueAt, t.OrderIndex).
		Scan(&t.ID, &t.IsActive, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID loads a task, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// NameExists reports whether the conference already has a task with the
// given name.
func (r *Repository) NameExists(ctx context.Context, conferenceID uuid.UUID, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE conference_id = $1 AND name = $2)`,
		conferenceID, name).Scan(&exists)
	return exists, err
}

// CountByConference returns the number of tasks in a conference.
func (r *Repository) CountByConference(ctx context.Context, conferenceID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE conference_id = $1`, conferenceID).Scan(&n)
	return n, err
}

// ListByConference returns a conference's tasks in display order.
func (r *Repository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE conference_id = $1 ORDER BY order_index, created_at`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update persists mutable task fields.
func (r *Repository) Update(ctx context.Context, t *models.Task) error {
	const q = `UPDATE tasks SET name = $2, description = NULLIF($3,''), is_required = $4,
		is_active = $5, start_at = $6, due_at = $7, order_index = $8, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, t.ID, t.Name, t.Description, t.IsRequired, t.IsActive,
		t.StartAt, t.DueAt, t.OrderIndex).Scan(&t.UpdatedAt)
}

// Delete removes a task; its assignments cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reorder rewrites order_index following the given ID sequence.
func (r *Repository) Reorder(ctx context.Context, conferenceID uuid.UUID, orderedIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for i, id := range orderedIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE tasks SET order_index = $3, updated_at = NOW() WHERE id = $1 AND conference_id = $2`,
			id, conferenceID, i+1); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ValidPersonIDs filters the given IDs down to attendees of the
// conference.
func (r *Repository) ValidPersonIDs(ctx context.Context, conferenceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM persons WHERE conference_id = $1 AND id = ANY($2)`, conferenceID, ids)
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

// EnsureAssignments creates the missing (person, task) assignments as
// pending, leaving existing rows untouched. Returns the number created.
func (r *Repository) EnsureAssignments(ctx context.Context, personIDs, taskIDs []uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO person_tasks (id, person_id, task_id, status)
		 SELECT gen_random_uuid(), p.id, t.id, 'pending'
		 FROM unnest($1::uuid[]) AS p(id) CROSS JOIN unnest($2::uuid[]) AS t(id)
		 ON CONFLICT (person_id, task_id) DO NOTHING`,
		personIDs, taskIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// AssignmentCounts returns how many task assignments each of the given
// persons currently holds.
func (r *Repository) AssignmentCounts(ctx context.Context, personIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT person_id, COUNT(*) FROM person_tasks WHERE person_id = ANY($1) GROUP BY person_id`,
		personIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[uuid.UUID]int, len(personIDs))
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// DeleteAssignments removes the given persons' assignments for one task.
// Returns the number removed.
func (r *Repository) DeleteAssignments(ctx context.Context, taskID uuid.UUID, personIDs []uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM person_tasks WHERE task_id = $1 AND person_id = ANY($2)`, taskID, personIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

const assignmentColumns = `id, person_id, task_id, status, COALESCE(notes,''), completed_at, completed_by, created_at, updated_at`

func scanAssignment(row pgx.Row) (*models.PersonTask, error) {
	var a models.PersonTask
	err := row.Scan(&a.ID, &a.PersonID, &a.TaskID, &a.Status, &a.Notes,
		&a.CompletedAt, &a.CompletedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAssignment loads one assignment, or nil.
func (r *Repository) GetAssignment(ctx context.Context, id uuid.UUID) (*models.PersonTask, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM person_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListAssignmentsByTask returns all assignments of a task.
func (r *Repository) ListAssignmentsByTask(ctx context.Context, taskID uuid.UUID) ([]*models.PersonTask, error) {
	return r.listAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM person_tasks WHERE task_id = $1 ORDER BY created_at`, taskID)
}

// ListAssignmentsByPerson returns all assignments of an attendee.
func (r *Repository) ListAssignmentsByPerson(ctx context.Context, personID uuid.UUID) ([]*models.PersonTask, error) {
	return r.listAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM person_tasks WHERE person_id = $1 ORDER BY created_at`, personID)
}

func (r *Repository) listAssignments(ctx context.Context, q string, arg any) ([]*models.PersonTask, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.PersonTask
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateAssignment persists assignment status, notes and completion
// metadata.
func (r *Repository) UpdateAssignment(ctx context.Context, a *models.PersonTask) error {
	const q = `UPDATE person_tasks SET status = $2, notes = NULLIF($3,''), completed_at = $4,
		completed_by = $5, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, a.ID, a.Status, a.Notes, a.CompletedAt, a.CompletedBy).Scan(&a.UpdatedAt)
}

// CompletionStats aggregates assignment progress for one task.
func (r *Repository) CompletionStats(ctx context.Context, taskID uuid.UUID) (*models.TaskCompletionStats, error) {
	const q = `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'completed'),
		COUNT(*) FILTER (WHERE status = 'pending')
		FROM person_tasks WHERE task_id = $1`
	stats := &models.TaskCompletionStats{TaskID: taskID}
	if err := r.pool.QueryRow(ctx, q, taskID).Scan(&stats.TotalAssignments, &stats.Completed, &stats.Pending); err != nil {
		return nil, err
	}
	if stats.TotalAssignments > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalAssignments)
	}
	return stats, nil
}
