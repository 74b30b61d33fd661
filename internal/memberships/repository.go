package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// Repository handles membership and permission override persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a memberships repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipColumns = `m.id, m.conference_id, m.user_id, m.role_id, m.status, m.joined_at, m.updated_at`

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.ID, &m.ConferenceID, &m.UserID, &m.RoleID, &m.Status, &m.JoinedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembership loads a user's membership in a conference with its role,
// role permissions and overrides. Returns nil when the user is not a
// member. Satisfies middleware.MembershipLoader.
func (r *Repository) GetMembership(ctx context.Context, conferenceID, userID uuid.UUID) (*models.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM conference_members m WHERE m.conference_id = $1 AND m.user_id = $2`,
		conferenceID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, m)
}

// GetByID loads one membership by its ID with role and overrides, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM conference_members m WHERE m.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, m)
}

func (r *Repository) hydrate(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	role, err := r.getRole(ctx, m.RoleID)
	if err != nil {
		return nil, err
	}
	m.Role = role

	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.membership_id, o.permission_id, p.codename, o.is_revoked, o.granted_by,
			COALESCE(o.reason,''), o.created_at, o.updated_at
		 FROM member_permission_overrides o
		 JOIN conference_permissions p ON p.id = o.permission_id
		 WHERE o.membership_id = $1`, m.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o models.PermissionOverride
		if err := rows.Scan(&o.ID, &o.MembershipID, &o.PermissionID, &o.Codename, &o.IsRevoked,
			&o.GrantedBy, &o.Reason, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		m.Overrides = append(m.Overrides, o)
	}
	return m, rows.Err()
}

func (r *Repository) getRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, conference_id, role_type, name, COALESCE(description,''), is_active, created_at, updated_at
		 FROM conference_roles WHERE id = $1`, roleID).
		Scan(&role.ID, &role.ConferenceID, &role.RoleType, &role.Name, &role.Description,
			&role.IsActive, &role.CreatedAt, &role.UpdatedAt)
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

// GetRoleByType returns a conference role by its type, or nil.
func (r *Repository) GetRoleByType(ctx context.Context, conferenceID uuid.UUID, roleType models.RoleType) (*models.Role, error) {
	var roleID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM conference_roles WHERE conference_id = $1 AND role_type = $2 ORDER BY created_at LIMIT 1`,
		conferenceID, roleType).Scan(&roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.getRole(ctx, roleID)
}

// GetRole returns a role by ID, or nil.
func (r *Repository) GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	role, err := r.getRole(ctx, roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return role, err
}

// List returns all memberships of a conference with their roles.
func (r *Repository) List(ctx context.Context, conferenceID uuid.UUID) ([]*models.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+membershipColumns+`, r.id, r.conference_id, r.role_type, r.name, COALESCE(r.description,''),
			r.is_active, r.created_at, r.updated_at
		 FROM conference_members m
		 JOIN conference_roles r ON r.id = m.role_id
		 WHERE m.conference_id = $1
		 ORDER BY m.joined_at`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Membership
	for rows.Next() {
		var m models.Membership
		var role models.Role
		if err := rows.Scan(&m.ID, &m.ConferenceID, &m.UserID, &m.RoleID, &m.Status, &m.JoinedAt, &m.UpdatedAt,
			&role.ID, &role.ConferenceID, &role.RoleType, &role.Name, &role.Description,
			&role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = &role
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CountActive returns the number of active memberships in a conference.
func (r *Repository) CountActive(ctx context.Context, conferenceID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conference_members WHERE conference_id = $1 AND status = 'active'`,
		conferenceID).Scan(&n)
	return n, err
}

// CountActiveExecutives returns the number of active memberships holding
// an executive role type.
func (r *Repository) CountActiveExecutives(ctx context.Context, conferenceID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conference_members m
		 JOIN conference_roles r ON r.id = m.role_id
		 WHERE m.conference_id = $1 AND m.status = 'active'
		   AND r.role_type IN ('secretary','deputy','assistant')`,
		conferenceID).Scan(&n)
	return n, err
}

// HasSecretary reports whether the conference already has a secretary
// membership.
func (r *Repository) HasSecretary(ctx context.Context, conferenceID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM conference_members m
			JOIN conference_roles r ON r.id = m.role_id
			WHERE m.conference_id = $1 AND r.role_type = 'secretary')`,
		conferenceID).Scan(&exists)
	return exists, err
}

// Create inserts a membership.
func (r *Repository) Create(ctx context.Context, m *models.Membership) error {
	const q = `INSERT INTO conference_members (id, conference_id, user_id, role_id, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, joined_at, updated_at`
	if m.Status == "" {
		m.Status = models.MemberActive
	}
	return r.pool.QueryRow(ctx, q, m.ConferenceID, m.UserID, m.RoleID, m.Status).
		Scan(&m.ID, &m.JoinedAt, &m.UpdatedAt)
}

// UpdateStatus sets the membership status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MembershipStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE conference_members SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

// Delete removes a membership; its overrides cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conference_members WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPermissionsByCodenames resolves codenames against the catalog.
func (r *Repository) ListPermissionsByCodenames(ctx context.Context, codenames []string) ([]models.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, codename, name, COALESCE(description,''), created_at
		 FROM conference_permissions WHERE codename = ANY($1)`, codenames)
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

// UpsertOverride inserts or updates a direct permission override. The
// upsert keeps repeated grants and revokes idempotent.
func (r *Repository) UpsertOverride(ctx context.Context, o *models.PermissionOverride) error {
	const q = `INSERT INTO member_permission_overrides
		(id, membership_id, permission_id, is_revoked, granted_by, reason)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''))
		ON CONFLICT (membership_id, permission_id)
		DO UPDATE SET is_revoked = EXCLUDED.is_revoked, granted_by = EXCLUDED.granted_by,
			reason = EXCLUDED.reason, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, o.MembershipID, o.PermissionID, o.IsRevoked, o.GrantedBy, o.Reason).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// DeleteOverride removes a direct override, restoring the role default.
func (r *Repository) DeleteOverride(ctx context.Context, membershipID, permissionID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM member_permission_overrides WHERE membership_id = $1 AND permission_id = $2`,
		membershipID, permissionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
