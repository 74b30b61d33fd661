// Package access computes effective permissions and status gating for a
// (user, conference) pair. It is pure: callers load the membership with
// its role and overrides, the engine only inspects them.
package access

import (
	"github.com/Hamayesh-Negar/Back-end/internal/models"
)

// Reason classifies why access was denied.
type Reason string

const (
	ReasonNotAuthenticated  Reason = "not_authenticated"
	ReasonNotAMember        Reason = "not_a_member"
	ReasonSuspended         Reason = "suspended"
	ReasonInactive          Reason = "inactive"
	ReasonMissingPermission Reason = "missing_permission"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(r Reason) Decision {
	return Decision{Allowed: false, Reason: r}
}

// EffectivePermissions computes the membership's permission set:
// role permissions, minus revoked overrides, plus granted overrides.
// Grant/revoke upserts are keyed per permission, so the result is
// independent of the order the overrides were applied in.
func EffectivePermissions(m *models.Membership) map[string]bool {
	perms := make(map[string]bool)
	if m == nil {
		return perms
	}
	if m.Role != nil {
		for _, p := range m.Role.Permissions {
			perms[p.Codename] = true
		}
	}
	for _, o := range m.Overrides {
		if o.IsRevoked {
			delete(perms, o.Codename)
		} else {
			perms[o.Codename] = true
		}
	}
	return perms
}

// Check runs the full access algorithm for one permission codename.
// The status gate precedes the permission gate: a suspended secretary is
// blocked even though their role holds every permission.
func Check(user *models.User, m *models.Membership, codename string) Decision {
	if user == nil {
		return deny(ReasonNotAuthenticated)
	}
	if user.IsSuperuser {
		return allow()
	}
	if m == nil {
		return deny(ReasonNotAMember)
	}
	switch m.Status {
	case models.MemberSuspended:
		return deny(ReasonSuspended)
	case models.MemberInactive:
		return deny(ReasonInactive)
	}
	if EffectivePermissions(m)[codename] {
		return allow()
	}
	return deny(ReasonMissingPermission)
}

// CheckStatus gates on membership status only, without a permission
// requirement. Used for member-level reads.
func CheckStatus(user *models.User, m *models.Membership) Decision {
	if user == nil {
		return deny(ReasonNotAuthenticated)
	}
	if user.IsSuperuser {
		return allow()
	}
	if m == nil {
		return deny(ReasonNotAMember)
	}
	switch m.Status {
	case models.MemberSuspended:
		return deny(ReasonSuspended)
	case models.MemberInactive:
		return deny(ReasonInactive)
	}
	return allow()
}

// CheckRoleType gates on membership status plus role type, for the
// secretary-only and executive-only operations.
func CheckRoleType(user *models.User, m *models.Membership, types ...models.RoleType) Decision {
	d := CheckStatus(user, m)
	if !d.Allowed {
		return d
	}
	if user.IsSuperuser {
		return allow()
	}
	if m.Role == nil {
		return deny(ReasonMissingPermission)
	}
	for _, t := range types {
		if m.Role.RoleType == t {
			return allow()
		}
	}
	return deny(ReasonMissingPermission)
}
