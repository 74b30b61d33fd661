package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

type overrideKey struct {
	membership uuid.UUID
	permission uuid.UUID
}

type fakeStore struct {
	conference  *models.Conference
	roles       map[uuid.UUID]*models.Role
	memberships map[uuid.UUID]*models.Membership
	overrides   map[overrideKey]*models.PermissionOverride
	catalog     map[string]models.Permission
}

func newFakeStore(conf *models.Conference) *fakeStore {
	f := &fakeStore{
		conference:  conf,
		roles:       make(map[uuid.UUID]*models.Role),
		memberships: make(map[uuid.UUID]*models.Membership),
		overrides:   make(map[overrideKey]*models.PermissionOverride),
		catalog:     make(map[string]models.Permission),
	}
	for _, p := range models.DefaultPermissions() {
		p.ID = uuid.New()
		f.catalog[p.Codename] = p
	}
	return f
}

func (f *fakeStore) addRole(roleType models.RoleType, codenames ...string) *models.Role {
	role := &models.Role{ID: uuid.New(), ConferenceID: f.conference.ID, RoleType: roleType, IsActive: true}
	for _, c := range codenames {
		role.Permissions = append(role.Permissions, f.catalog[c])
	}
	f.roles[role.ID] = role
	return role
}

func (f *fakeStore) addMember(role *models.Role, status models.MembershipStatus) *models.Membership {
	m := &models.Membership{
		ID:           uuid.New(),
		ConferenceID: f.conference.ID,
		UserID:       uuid.New(),
		RoleID:       role.ID,
		Status:       status,
		Role:         role,
	}
	f.memberships[m.ID] = m
	return m
}

func (f *fakeStore) GetMembership(_ context.Context, conferenceID, userID uuid.UUID) (*models.Membership, error) {
	for _, m := range f.memberships {
		if m.ConferenceID == conferenceID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Membership, error) {
	m, ok := f.memberships[id]
	if !ok {
		return nil, nil
	}
	m.Overrides = nil
	for key, o := range f.overrides {
		if key.membership == id {
			m.Overrides = append(m.Overrides, *o)
		}
	}
	return m, nil
}

func (f *fakeStore) GetRole(_ context.Context, roleID uuid.UUID) (*models.Role, error) {
	return f.roles[roleID], nil
}

func (f *fakeStore) GetRoleByType(_ context.Context, conferenceID uuid.UUID, roleType models.RoleType) (*models.Role, error) {
	for _, r := range f.roles {
		if r.ConferenceID == conferenceID && r.RoleType == roleType {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CountActive(_ context.Context, conferenceID uuid.UUID) (int, error) {
	n := 0
	for _, m := range f.memberships {
		if m.ConferenceID == conferenceID && m.Status == models.MemberActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountActiveExecutives(ctx context.Context, conferenceID uuid.UUID) (int, error) {
	return f.CountActive(ctx, conferenceID)
}

func (f *fakeStore) HasSecretary(_ context.Context, conferenceID uuid.UUID) (bool, error) {
	for _, m := range f.memberships {
		if m.ConferenceID == conferenceID && m.Role != nil && m.Role.RoleType == models.RoleSecretary {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(_ context.Context, m *models.Membership) error {
	m.ID = uuid.New()
	m.Role = f.roles[m.RoleID]
	f.memberships[m.ID] = m
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.MembershipStatus) error {
	f.memberships[id].Status = status
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.memberships[id]; !ok {
		return false, nil
	}
	delete(f.memberships, id)
	return true, nil
}

func (f *fakeStore) ListPermissionsByCodenames(_ context.Context, codenames []string) ([]models.Permission, error) {
	var out []models.Permission
	for _, c := range codenames {
		if p, ok := f.catalog[c]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertOverride(_ context.Context, o *models.PermissionOverride) error {
	key := overrideKey{o.MembershipID, o.PermissionID}
	if existing, ok := f.overrides[key]; ok {
		existing.IsRevoked = o.IsRevoked
		existing.GrantedBy = o.GrantedBy
		existing.Reason = o.Reason
		*o = *existing
		return nil
	}
	o.ID = uuid.New()
	for c, p := range f.catalog {
		if p.ID == o.PermissionID {
			o.Codename = c
		}
	}
	clone := *o
	f.overrides[key] = &clone
	return nil
}

func (f *fakeStore) DeleteOverride(_ context.Context, membershipID, permissionID uuid.UUID) (bool, error) {
	key := overrideKey{membershipID, permissionID}
	if _, ok := f.overrides[key]; !ok {
		return false, nil
	}
	delete(f.overrides, key)
	return true, nil
}

type fakeConferences struct{ conf *models.Conference }

func (f *fakeConferences) GetByID(_ context.Context, id uuid.UUID) (*models.Conference, error) {
	if f.conf != nil && f.conf.ID == id {
		return f.conf, nil
	}
	return nil, nil
}

type fakeNotifier struct {
	permissionEvents int
	removedEvents    int
}

func (f *fakeNotifier) PermissionsUpdated(context.Context, uuid.UUID, uuid.UUID) { f.permissionEvents++ }
func (f *fakeNotifier) MembershipRemoved(context.Context, uuid.UUID, uuid.UUID) { f.removedEvents++ }

func testConference() *models.Conference {
	return &models.Conference{ID: uuid.New(), MaxMembers: 3, MaxExecutives: 2, IsActive: true}
}

func newTestService(store *fakeStore, notifier *fakeNotifier) *Service {
	if notifier == nil {
		notifier = &fakeNotifier{}
	}
	return NewService(store, &fakeConferences{conf: store.conference}, notifier, zap.NewNop())
}

func TestCreateEnforcesMemberCapacity(t *testing.T) {
	store := newFakeStore(testConference())
	store.conference.MaxMembers = 1
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	store.addMember(role, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), store.conference.ID, uuid.New(), role.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCapacityExceeded))
	assert.Equal(t, apperrors.CapacityMembers, apperrors.AsError(err).Reason)
}

func TestCreateEnforcesExecutiveCapacity(t *testing.T) {
	store := newFakeStore(testConference())
	store.conference.MaxMembers = 10
	store.conference.MaxExecutives = 1
	role := store.addRole(models.RoleDeputy, models.PermViewConference)
	store.addMember(role, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), store.conference.ID, uuid.New(), role.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CapacityExecutives, apperrors.AsError(err).Reason)
}

func TestCreateSecretarySingleton(t *testing.T) {
	store := newFakeStore(testConference())
	secretary := store.addRole(models.RoleSecretary, models.PermViewConference)
	store.addMember(secretary, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), store.conference.ID, uuid.New(), secretary.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUniquenessViolation))
}

func TestCreateRejectsDuplicateMember(t *testing.T) {
	store := newFakeStore(testConference())
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	existing := store.addMember(role, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), store.conference.ID, existing.UserID, role.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUniquenessViolation))
}

func TestCreateSecretaryViaRoleLookup(t *testing.T) {
	store := newFakeStore(testConference())
	store.addRole(models.RoleSecretary, models.PermViewConference)
	svc := newTestService(store, nil)

	err := svc.CreateSecretary(context.Background(), store.conference.ID, uuid.New())
	require.NoError(t, err)

	has, _ := store.HasSecretary(context.Background(), store.conference.ID)
	assert.True(t, has)
}

func TestRemoveSecretaryForbidden(t *testing.T) {
	store := newFakeStore(testConference())
	secretary := store.addRole(models.RoleSecretary, models.PermViewConference)
	m := store.addMember(secretary, models.MemberActive)
	svc := newTestService(store, nil)

	err := svc.Remove(context.Background(), store.conference.ID, m.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonSecretaryProtected, apperrors.AsError(err).Reason)
	assert.Contains(t, store.memberships, m.ID)
}

func TestRemoveNotifies(t *testing.T) {
	store := newFakeStore(testConference())
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	m := store.addMember(role, models.MemberActive)
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)

	require.NoError(t, svc.Remove(context.Background(), store.conference.ID, m.ID))
	assert.Equal(t, 1, notifier.removedEvents)
}

func TestUpdateStatusSecretaryNeedsSuperuser(t *testing.T) {
	store := newFakeStore(testConference())
	secretary := store.addRole(models.RoleSecretary, models.PermViewConference)
	m := store.addMember(secretary, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.UpdateStatus(context.Background(), store.conference.ID, m.ID, models.MemberSuspended, &models.User{ID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonSecretaryProtected, apperrors.AsError(err).Reason)

	updated, err := svc.UpdateStatus(context.Background(), store.conference.ID, m.ID, models.MemberSuspended, &models.User{ID: uuid.New(), IsSuperuser: true})
	require.NoError(t, err)
	assert.Equal(t, models.MemberSuspended, updated.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := newFakeStore(testConference())
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	m := store.addMember(role, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.UpdateStatus(context.Background(), store.conference.ID, m.ID, "banned", &models.User{ID: uuid.New()})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdatePermissionsGrantRevokeConflict(t *testing.T) {
	store := newFakeStore(testConference())
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	m := store.addMember(role, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, PermissionUpdate{
		Grant:  []string{models.PermViewReports},
		Revoke: []string{models.PermViewReports},
	}, &models.User{ID: uuid.New()})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdatePermissionsUnknownCodename(t *testing.T) {
	store := newFakeStore(testConference())
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	m := store.addMember(role, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, PermissionUpdate{
		Grant: []string{"launch_rockets"},
	}, &models.User{ID: uuid.New()})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdatePermissionsIdempotentAndRemovable(t *testing.T) {
	store := newFakeStore(testConference())
	role := store.addRole(models.RoleAssistant, models.PermViewConference)
	m := store.addMember(role, models.MemberActive)
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier)
	admin := &models.User{ID: uuid.New(), IsSuperuser: true}

	update := PermissionUpdate{Grant: []string{models.PermViewReports}, Revoke: []string{models.PermViewConference}}
	_, err := svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, update, admin)
	require.NoError(t, err)

	// Applying the same batch again changes nothing.
	updated, err := svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, update, admin)
	require.NoError(t, err)
	require.Len(t, updated.Overrides, 2)
	assert.Equal(t, 2, notifier.permissionEvents)

	updated, err = svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, PermissionUpdate{
		RemoveDirect: []string{models.PermViewReports, models.PermViewConference},
	}, admin)
	require.NoError(t, err)
	assert.Empty(t, updated.Overrides)
}

func TestUpdatePermissionsSecretarySelfAllowed(t *testing.T) {
	store := newFakeStore(testConference())
	secretary := store.addRole(models.RoleSecretary, models.PermViewConference)
	m := store.addMember(secretary, models.MemberActive)
	svc := newTestService(store, nil)

	_, err := svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, PermissionUpdate{
		Grant: []string{models.PermViewReports},
	}, &models.User{ID: m.UserID})
	assert.NoError(t, err)

	_, err = svc.UpdatePermissions(context.Background(), store.conference.ID, m.ID, PermissionUpdate{
		Grant: []string{models.PermViewReports},
	}, &models.User{ID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonSecretaryProtected, apperrors.AsError(err).Reason)
}
