package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

func role(perms ...string) *models.Role {
	r := &models.Role{ID: uuid.New(), RoleType: models.RoleAssistant, Name: "Assistant"}
	for _, p := range perms {
		r.Permissions = append(r.Permissions, models.Permission{ID: uuid.New(), Codename: p})
	}
	return r
}

func membership(status models.MembershipStatus, r *models.Role) *models.Membership {
	return &models.Membership{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: status,
		Role:   r,
	}
}

func override(codename string, revoked bool) models.PermissionOverride {
	return models.PermissionOverride{
		ID:           uuid.New(),
		PermissionID: uuid.New(),
		Codename:     codename,
		IsRevoked:    revoked,
	}
}

func TestCheckUnauthenticated(t *testing.T) {
	d := Check(nil, membership(models.MemberActive, role(models.PermViewPeople)), models.PermViewPeople)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotAuthenticated, d.Reason)
}

func TestCheckSuperuserBypassesMembership(t *testing.T) {
	su := &models.User{ID: uuid.New(), IsSuperuser: true}
	d := Check(su, nil, models.PermDeleteConference)
	assert.True(t, d.Allowed)
}

func TestCheckNotAMember(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	d := Check(u, nil, models.PermViewPeople)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotAMember, d.Reason)
}

func TestStatusGatePrecedesPermissionGate(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	full := role(models.PermViewConference, models.PermEditConference, models.PermDeleteConference)
	full.RoleType = models.RoleSecretary

	for _, tc := range []struct {
		status models.MembershipStatus
		reason Reason
	}{
		{models.MemberSuspended, ReasonSuspended},
		{models.MemberInactive, ReasonInactive},
	} {
		t.Run(string(tc.status), func(t *testing.T) {
			m := membership(tc.status, full)
			// Every codename the role nominally holds must still be denied.
			for _, p := range full.PermissionCodenames() {
				d := Check(u, m, p)
				assert.False(t, d.Allowed, "permission %s", p)
				assert.Equal(t, tc.reason, d.Reason)
			}
		})
	}
}

func TestCheckMissingPermission(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	m := membership(models.MemberActive, role(models.PermViewPeople))
	d := Check(u, m, models.PermDeletePeople)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonMissingPermission, d.Reason)

	d = Check(u, m, models.PermViewPeople)
	assert.True(t, d.Allowed)
}

func TestEffectivePermissionsAlgebra(t *testing.T) {
	m := membership(models.MemberActive, role(models.PermViewPeople, models.PermViewReports))

	// Revoke a role default, grant something the role lacks.
	m.Overrides = []models.PermissionOverride{
		override(models.PermViewReports, true),
		override(models.PermInviteMembers, false),
	}

	perms := EffectivePermissions(m)
	assert.True(t, perms[models.PermViewPeople])
	assert.False(t, perms[models.PermViewReports])
	assert.True(t, perms[models.PermInviteMembers])
}

func TestEffectivePermissionsConvergence(t *testing.T) {
	// Grant then revoke the same permission: the upsert keyed by
	// permission leaves a single row whose final state wins, regardless
	// of how many times the operations were applied.
	m := membership(models.MemberActive, role())
	m.Overrides = []models.PermissionOverride{override(models.PermViewReports, true)}
	require.False(t, EffectivePermissions(m)[models.PermViewReports])

	m.Overrides = []models.PermissionOverride{override(models.PermViewReports, false)}
	require.True(t, EffectivePermissions(m)[models.PermViewReports])
}

func TestEffectivePermissionsNilMembership(t *testing.T) {
	assert.Empty(t, EffectivePermissions(nil))
}

func TestCheckRoleType(t *testing.T) {
	u := &models.User{ID: uuid.New()}
	sec := role(models.PermViewConference)
	sec.RoleType = models.RoleSecretary
	m := membership(models.MemberActive, sec)

	assert.True(t, CheckRoleType(u, m, models.RoleSecretary).Allowed)
	assert.True(t, CheckRoleType(u, m, models.RoleSecretary, models.RoleDeputy).Allowed)

	d := CheckRoleType(u, m, models.RoleDeputy)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonMissingPermission, d.Reason)

	// Status gate still applies.
	m.Status = models.MemberSuspended
	d = CheckRoleType(u, m, models.RoleSecretary)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSuspended, d.Reason)
}
