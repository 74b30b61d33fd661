package conferences

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// RoleSeed describes one default role created during conference bootstrap.
type RoleSeed struct {
	RoleType    models.RoleType
	Name        string
	Description string
	Permissions []string // codenames
}

// Repository handles conference, permission catalog and role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a conferences repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conferenceColumns = `id, name, slug, COALESCE(description,''), start_date, end_date, is_active,
	max_members, max_executives, enable_categorization, max_tasks_per_conference, max_tasks_per_user,
	created_by, created_at, updated_at`

func scanConference(row pgx.Row) (*models.Conference, error) {
	var c models.Conference
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.StartDate, &c.EndDate, &c.IsActive,
		&c.MaxMembers, &c.MaxExecutives, &c.EnableCategorization, &c.MaxTasksPerConference, &c.MaxTasksPerUser,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateWithBootstrap inserts the conference, upserts the permission
// catalog and creates the default roles in a single transaction.
func (r *Repository) CreateWithBootstrap(ctx context.Context, c *models.Conference, seeds []RoleSeed) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertConf = `INSERT INTO conferences
		(id, name, slug, description, start_date, end_date, max_members, max_executives,
		 enable_categorization, max_tasks_per_conference, max_tasks_per_user, created_by)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, is_active, created_at, updated_at`
	err = tx.QueryRow(ctx, insertConf, c.Name, c.Slug, c.Description, c.StartDate, c.EndDate,
		c.MaxMembers, c.MaxExecutives, c.EnableCategorization, c.MaxTasksPerConference, c.MaxTasksPerUser, c.CreatedBy).
		Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}

	permIDs := make(map[string]uuid.UUID)
	const upsertPerm = `INSERT INTO conference_permissions (id, codename, name, description)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''))
		ON CONFLICT (codename) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	for _, p := range models.DefaultPermissions() {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, upsertPerm, p.Codename, p.Name, p.Description).Scan(&id); err != nil {
			return err
		}
		permIDs[p.Codename] = id
	}

	const insertRole = `INSERT INTO conference_roles (id, conference_id, role_type, name, description)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''))
		RETURNING id`
	for _, seed := range seeds {
		var roleID uuid.UUID
		if err := tx.QueryRow(ctx, insertRole, c.ID, seed.RoleType, seed.Name, seed.Description).Scan(&roleID); err != nil {
			return err
		}
		for _, codename := range seed.Permissions {
			pid, ok := permIDs[codename]
			if !ok {
				continue
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO conference_role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				roleID, pid); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns a conference by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conference, error) {
	c, err := scanConference(r.pool.QueryRow(ctx, `SELECT `+conferenceColumns+` FROM conferences WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetBySlug returns a conference by slug, or nil when absent.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Conference, error) {
	c, err := scanConference(r.pool.QueryRow(ctx, `SELECT `+conferenceColumns+` FROM conferences WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns all conferences, newest first.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]*models.Conference, error) {
	q := `SELECT ` + conferenceColumns + ` FROM conferences`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY start_date DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Conference
	for rows.Next() {
		c, err := scanConference(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListSlugs returns existing slugs with the given prefix, for collision
// disambiguation.
func (r *Repository) ListSlugs(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT slug FROM conferences WHERE slug = $1 OR slug LIKE $1 || '-%'`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// Update persists mutable conference fields.
func (r *Repository) Update(ctx context.Context, c *models.Conference) error {
	const q = `UPDATE conferences SET name = $2, description = NULLIF($3,''), start_date = $4, end_date = $5,
		is_active = $6, max_members = $7, max_executives = $8, enable_categorization = $9,
		max_tasks_per_conference = $10, max_tasks_per_user = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Description, c.StartDate, c.EndDate,
		c.IsActive, c.MaxMembers, c.MaxExecutives, c.EnableCategorization,
		c.MaxTasksPerConference, c.MaxTasksPerUser).Scan(&c.UpdatedAt)
}

// Delete removes a conference; dependents cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conferences WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Deactivate clears is_active for one conference.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE conferences SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// DeactivateEnded clears is_active on every conference whose end date has
// passed. Returns the number of conferences deactivated.
func (r *Repository) DeactivateEnded(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE conferences SET is_active = FALSE, updated_at = NOW() WHERE is_active AND end_date < CURRENT_DATE`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Statistics aggregates attendee, task and category counts for a conference.
func (r *Repository) Statistics(ctx context.Context, id uuid.UUID) (*models.ConferenceStatistics, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM persons WHERE conference_id = $1),
		(SELECT COUNT(*) FROM tasks WHERE conference_id = $1),
		(SELECT COUNT(*) FROM categories WHERE conference_id = $1),
		(SELECT COUNT(*) FROM person_tasks pt JOIN tasks t ON t.id = pt.task_id WHERE t.conference_id = $1),
		(SELECT COUNT(*) FROM person_tasks pt JOIN tasks t ON t.id = pt.task_id WHERE t.conference_id = $1 AND pt.status = 'completed')`
	var s models.ConferenceStatistics
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.TotalAttendees, &s.TotalTasks, &s.TotalCategories, &s.TotalAssignments, &s.CompletedTasks)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListPermissions returns the permission catalog.
func (r *Repository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, codename, name, COALESCE(description,''), created_at FROM conference_permissions ORDER BY codename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Codename, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListRoles returns the conference's roles with their permission sets.
func (r *Repository) ListRoles(ctx context.Context, conferenceID uuid.UUID) ([]*models.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, conference_id, role_type, name, COALESCE(description,''), is_active, created_at, updated_at
		 FROM conference_roles WHERE conference_id = $1 ORDER BY role_type`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Role
	byID := make(map[uuid.UUID]*models.Role)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.ConferenceID, &role.RoleType, &role.Name, &role.Description,
			&role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &role)
		byID[role.ID] = &role
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	permRows, err := r.pool.Query(ctx,
		`SELECT rp.role_id, p.id, p.codename, p.name, COALESCE(p.description,''), p.created_at
		 FROM conference_role_permissions rp
		 JOIN conference_permissions p ON p.id = rp.permission_id
		 JOIN conference_roles cr ON cr.id = rp.role_id
		 WHERE cr.conference_id = $1`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()
	for permRows.Next() {
		var roleID uuid.UUID
		var p models.Permission
		if err := permRows.Scan(&roleID, &p.ID, &p.Codename, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		if role, ok := byID[roleID]; ok {
			role.Permissions = append(role.Permissions, p)
		}
	}
	return list, permRows.Err()
}

// GetRole returns one role with its permission set, or nil when absent.
func (r *Repository) GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, conference_id, role_type, name, COALESCE(description,''), is_active, created_at, updated_at
		 FROM conference_roles WHERE id = $1`, roleID).
		Scan(&role.ID, &role.ConferenceID, &role.RoleType, &role.Name, &role.Description,
			&role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.codename, p.name, COALESCE(p.description,''), p.created_at
		 FROM conference_role_permissions rp
		 JOIN conference_permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Codename, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		role.Permissions = append(role.Permissions, p)
	}
	return &role, rows.Err()
}

// SetRolePermissions replaces a role's permission set.
func (r *Repository) SetRolePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `DELETE FROM conference_role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conference_role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, pid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// UpdateRole persists role name, description and active flag.
func (r *Repository) UpdateRole(ctx context.Context, role *models.Role) error {
	const q = `UPDATE conference_roles SET name = $2, description = NULLIF($3,''), is_active = $4, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, role.ID, role.Name, role.Description, role.IsActive).Scan(&role.UpdatedAt)
}
