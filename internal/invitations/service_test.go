package invitations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

type fakeStore struct {
	invitations map[uuid.UUID]*models.Invitation
	memberships []*models.Membership
	overrides   []*models.PermissionOverride
	acceptErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{invitations: make(map[uuid.UUID]*models.Invitation)}
}

func (f *fakeStore) Create(_ context.Context, inv *models.Invitation) error {
	inv.ID = uuid.New()
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now()
	f.invitations[inv.ID] = inv
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Invitation, error) {
	return f.invitations[id], nil
}

func (f *fakeStore) HasPending(_ context.Context, conferenceID, userID uuid.UUID) (bool, error) {
	for _, inv := range f.invitations {
		if inv.ConferenceID == conferenceID && inv.InvitedUserID == userID && inv.Status == models.InvitationPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListByConference(_ context.Context, conferenceID uuid.UUID) ([]*models.Invitation, error) {
	var out []*models.Invitation
	for _, inv := range f.invitations {
		if inv.ConferenceID == conferenceID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) ListForUser(_ context.Context, userID uuid.UUID) ([]*models.Invitation, error) {
	var out []*models.Invitation
	for _, inv := range f.invitations {
		if inv.InvitedUserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.InvitationStatus, respondedAt *time.Time) error {
	inv := f.invitations[id]
	inv.Status = status
	inv.RespondedAt = respondedAt
	return nil
}

func (f *fakeStore) Accept(_ context.Context, inv *models.Invitation, m *models.Membership, respondedAt time.Time) error {
	if f.acceptErr != nil {
		return f.acceptErr
	}
	m.ID = uuid.New()
	f.memberships = append(f.memberships, m)
	for _, pid := range inv.GrantPermissionIDs {
		f.overrides = append(f.overrides, &models.PermissionOverride{
			MembershipID: m.ID,
			PermissionID: pid,
			GrantedBy:    inv.InvitedByID,
		})
	}
	stored := f.invitations[inv.ID]
	stored.Status = models.InvitationAccepted
	stored.RespondedAt = &respondedAt
	return nil
}

func (f *fakeStore) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invitations {
		if inv.IsExpired(now) {
			inv.Status = models.InvitationExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ExpirePendingByConference(_ context.Context, conferenceID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invitations {
		if inv.ConferenceID == conferenceID && inv.IsExpired(now) {
			inv.Status = models.InvitationExpired
			n++
		}
	}
	return n, nil
}

type fakeMemberships struct {
	memberships map[uuid.UUID]uuid.UUID // userID -> conferenceID
	roles       map[uuid.UUID]*models.Role
}

func newFakeMemberships() *fakeMemberships {
	return &fakeMemberships{
		memberships: make(map[uuid.UUID]uuid.UUID),
		roles:       make(map[uuid.UUID]*models.Role),
	}
}

func (f *fakeMemberships) GetMembership(_ context.Context, conferenceID, userID uuid.UUID) (*models.Membership, error) {
	if f.memberships[userID] == conferenceID {
		return &models.Membership{ConferenceID: conferenceID, UserID: userID}, nil
	}
	return nil, nil
}

func (f *fakeMemberships) GetRole(_ context.Context, roleID uuid.UUID) (*models.Role, error) {
	return f.roles[roleID], nil
}

type fakeEnroller struct {
	err      error
	prepared int
}

func (f *fakeEnroller) PrepareEnrollment(_ context.Context, conferenceID, userID, roleID uuid.UUID) (*models.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.prepared++
	return &models.Membership{ConferenceID: conferenceID, UserID: userID, RoleID: roleID, Status: models.MemberActive}, nil
}

type fakeNotifier struct{ created int }

func (f *fakeNotifier) InvitationCreated(context.Context, *models.Invitation) { f.created++ }

type fixture struct {
	store    *fakeStore
	members  *fakeMemberships
	enroller *fakeEnroller
	notifier *fakeNotifier
	svc      *Service

	conferenceID uuid.UUID
	role         *models.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:        newFakeStore(),
		members:      newFakeMemberships(),
		enroller:     &fakeEnroller{},
		notifier:     &fakeNotifier{},
		conferenceID: uuid.New(),
	}
	f.role = &models.Role{ID: uuid.New(), ConferenceID: f.conferenceID, RoleType: models.RoleAssistant}
	f.members.roles[f.role.ID] = f.role
	f.svc = NewService(f.store, f.members, f.enroller, f.notifier, 7, zap.NewNop())
	return f
}

func (f *fixture) invite(t *testing.T, invitee uuid.UUID) *models.Invitation {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), f.conferenceID, CreateInput{
		InvitedUserID: invitee,
		RoleID:        f.role.ID,
	}, uuid.New())
	require.NoError(t, err)
	return inv
}

func TestCreateDefaultsExpiry(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	inv := f.invite(t, uuid.New())
	assert.Equal(t, now.AddDate(0, 0, 7), inv.ExpiresAt)
	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.Equal(t, 1, f.notifier.created)
}

func TestCreateRejectsSelfInvitation(t *testing.T) {
	f := newFixture(t)
	me := uuid.New()

	_, err := f.svc.Create(context.Background(), f.conferenceID, CreateInput{
		InvitedUserID: me,
		RoleID:        f.role.ID,
	}, me)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateRejectsExistingMember(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	f.members.memberships[invitee] = f.conferenceID

	_, err := f.svc.Create(context.Background(), f.conferenceID, CreateInput{
		InvitedUserID: invitee,
		RoleID:        f.role.ID,
	}, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindUniquenessViolation))
}

func TestCreateRejectsSecondPending(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	f.invite(t, invitee)

	_, err := f.svc.Create(context.Background(), f.conferenceID, CreateInput{
		InvitedUserID: invitee,
		RoleID:        f.role.ID,
	}, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUniquenessViolation))
	assert.Equal(t, "pending", apperrors.AsError(err).Field)
}

func TestCreateRejectsPastExpiry(t *testing.T) {
	f := newFixture(t)
	past := time.Now().Add(-time.Hour)

	_, err := f.svc.Create(context.Background(), f.conferenceID, CreateInput{
		InvitedUserID: uuid.New(),
		RoleID:        f.role.ID,
		ExpiresAt:     &past,
	}, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestAcceptOnlyInvitee(t *testing.T) {
	f := newFixture(t)
	inv := f.invite(t, uuid.New())

	_, err := f.svc.Accept(context.Background(), inv.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAccessDenied))
}

func TestAcceptCreatesMembershipWithGrants(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	grant := uuid.New()
	inv, err := f.svc.Create(context.Background(), f.conferenceID, CreateInput{
		InvitedUserID:      invitee,
		RoleID:             f.role.ID,
		GrantPermissionIDs: []uuid.UUID{grant},
	}, uuid.New())
	require.NoError(t, err)

	m, err := f.svc.Accept(context.Background(), inv.ID, invitee)
	require.NoError(t, err)
	assert.Equal(t, invitee, m.UserID)
	assert.Equal(t, models.InvitationAccepted, f.store.invitations[inv.ID].Status)
	require.Len(t, f.store.overrides, 1)
	assert.Equal(t, grant, f.store.overrides[0].PermissionID)
	assert.Equal(t, m.ID, f.store.overrides[0].MembershipID)
	assert.False(t, f.store.overrides[0].IsRevoked)
}

func TestAcceptTwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	inv := f.invite(t, invitee)

	_, err := f.svc.Accept(context.Background(), inv.ID, invitee)
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), inv.ID, invitee)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStateTransition))
	assert.Equal(t, "accepted", apperrors.AsError(err).From)
}

func TestAcceptExpiredFlipsLazily(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	inv := f.invite(t, invitee)

	f.svc.now = func() time.Time { return inv.ExpiresAt.Add(time.Minute) }
	_, err := f.svc.Accept(context.Background(), inv.ID, invitee)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStateTransition))
	assert.Equal(t, models.InvitationExpired, f.store.invitations[inv.ID].Status)
	assert.Zero(t, f.enroller.prepared)
}

func TestAcceptCapacityFailureLeavesPending(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	inv := f.invite(t, invitee)
	f.enroller.err = apperrors.CapacityExceeded(apperrors.CapacityMembers)

	_, err := f.svc.Accept(context.Background(), inv.ID, invitee)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCapacityExceeded))
	assert.Equal(t, models.InvitationPending, f.store.invitations[inv.ID].Status)
	assert.Empty(t, f.store.memberships)
}

func TestAcceptFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	inv := f.invite(t, invitee)
	f.store.acceptErr = errors.New("connection reset")

	_, err := f.svc.Accept(context.Background(), inv.ID, invitee)
	require.Error(t, err)
	assert.Equal(t, models.InvitationPending, f.store.invitations[inv.ID].Status)
	assert.Empty(t, f.store.memberships)
	assert.Empty(t, f.store.overrides)
}

func TestRejectFromPendingOnly(t *testing.T) {
	f := newFixture(t)
	invitee := uuid.New()
	inv := f.invite(t, invitee)

	rejected, err := f.svc.Reject(context.Background(), inv.ID, invitee)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRejected, rejected.Status)
	require.NotNil(t, rejected.RespondedAt)

	_, err = f.svc.Reject(context.Background(), inv.ID, invitee)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStateTransition))
}

func TestExpirePendingSweep(t *testing.T) {
	f := newFixture(t)
	inv := f.invite(t, uuid.New())
	f.svc.now = func() time.Time { return inv.ExpiresAt.Add(time.Hour) }

	n, err := f.svc.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.InvitationExpired, f.store.invitations[inv.ID].Status)
}

func TestExpirePendingForConference(t *testing.T) {
	f := newFixture(t)
	inv := f.invite(t, uuid.New())
	f.svc.now = func() time.Time { return inv.ExpiresAt.Add(time.Hour) }

	n, err := f.svc.ExpirePendingFor(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.ExpirePendingFor(context.Background(), inv.ConferenceID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.InvitationExpired, f.store.invitations[inv.ID].Status)
}
