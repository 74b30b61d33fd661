package invitations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// Repository handles invitation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invitations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invitationColumns = `id, conference_id, invited_user_id, invited_by_id, role_id,
	COALESCE(message,''), status, expires_at, responded_at, created_at`

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(&inv.ID, &inv.ConferenceID, &inv.InvitedUserID, &inv.InvitedByID, &inv.RoleID,
		&inv.Message, &inv.Status, &inv.ExpiresAt, &inv.RespondedAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts an invitation and its optional permission grants in one
// transaction.
func (r *Repository) Create(ctx context.Context, inv *models.Invitation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO conference_invitations
		(id, conference_id, invited_user_id, invited_by_id, role_id, message, status, expires_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''), 'pending', $6)
		RETURNING id, status, created_at`
	err = tx.QueryRow(ctx, q, inv.ConferenceID, inv.InvitedUserID, inv.InvitedByID, inv.RoleID,
		inv.Message, inv.ExpiresAt).Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if err != nil {
		return err
	}
	for _, pid := range inv.GrantPermissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO invitation_permission_grants (invitation_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			inv.ID, pid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID loads an invitation with its permission grants, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, err := scanInvitation(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM conference_invitations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT permission_id FROM invitation_permission_grants WHERE invitation_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		inv.GrantPermissionIDs = append(inv.GrantPermissionIDs, pid)
	}
	return inv, rows.Err()
}

// HasPending reports whether the user already has a pending invitation
// to the conference.
func (r *Repository) HasPending(ctx context.Context, conferenceID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conference_invitations
		 WHERE conference_id = $1 AND invited_user_id = $2 AND status = 'pending')`,
		conferenceID, userID).Scan(&exists)
	return exists, err
}

// ListByConference returns a conference's invitations, newest first.
func (r *Repository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM conference_invitations
		WHERE conference_id = $1 ORDER BY created_at DESC`, conferenceID)
}

// ListForUser returns invitations addressed to a user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM conference_invitations
		WHERE invited_user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) list(ctx context.Context, q string, arg any) ([]*models.Invitation, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// UpdateStatus transitions an invitation, recording the response time
// for terminal user responses.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, respondedAt *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE conference_invitations SET status = $2, responded_at = $3 WHERE id = $1`,
		id, status, respondedAt)
	return err
}

// Accept commits an acceptance in one transaction: the membership row,
// the invitation's permission grants as direct overrides, and the
// status flip either all land or none do.
func (r *Repository) Accept(ctx context.Context, inv *models.Invitation, m *models.Membership, respondedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO conference_members (id, conference_id, user_id, role_id, status)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4)
		 RETURNING id, joined_at, updated_at`,
		m.ConferenceID, m.UserID, m.RoleID, m.Status).Scan(&m.ID, &m.JoinedAt, &m.UpdatedAt)
	if err != nil {
		return err
	}
	for _, pid := range inv.GrantPermissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO member_permission_overrides
			 (id, membership_id, permission_id, is_revoked, granted_by, reason)
			 VALUES (gen_random_uuid(), $1, $2, FALSE, $3, 'granted on invitation')
			 ON CONFLICT (membership_id, permission_id)
			 DO UPDATE SET is_revoked = FALSE, granted_by = EXCLUDED.granted_by,
				reason = EXCLUDED.reason, updated_at = NOW()`,
			m.ID, pid, inv.InvitedByID); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE conference_invitations SET status = 'accepted', responded_at = $2 WHERE id = $1`,
		inv.ID, respondedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ExpirePending marks every pending invitation past its deadline as
// expired. Returns the number of invitations expired.
func (r *Repository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE conference_invitations SET status = 'expired' WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExpirePendingByConference flips one conference's overdue pending
// invitations to expired. Returns the number updated.
func (r *Repository) ExpirePendingByConference(ctx context.Context, conferenceID uuid.UUID, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE conference_invitations SET status = 'expired'
		 WHERE conference_id = $1 AND status = 'pending' AND expires_at < $2`,
		conferenceID, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
