package models

import (
	id "gatepass/pkg/domain"
	"gatepass/pkg/identity"
)

// Policy is the authorization rule for one operation. A caller passes when
// they hold any role in Roles, or when HouseholdScoped is set and they belong
// to the visitor's host household.
type Policy struct {
	Roles           identity.RoleSet
	HouseholdScoped bool
}

// Allows evaluates the policy for caller against a visitor's household.
func (p Policy) Allows(caller identity.Caller, household id.HouseholdID) bool {
	if caller.Roles.Intersects(p.Roles) {
		return true
	}
	return p.HouseholdScoped && caller.BelongsTo(household)
}

// Unscoped reports whether caller passes on role alone, without a household
// match. Used to decide whether a search spans every household.
func (p Policy) Unscoped(caller identity.Caller) bool {
	return caller.Roles.Intersects(p.Roles)
}

var (
	PolicyCreate = Policy{Roles: identity.Roles(identity.RoleResident, identity.RoleAdmin)}
	PolicyDecide = Policy{Roles: identity.Roles(identity.RoleAdmin), HouseholdScoped: true}
	PolicyGate   = Policy{Roles: identity.Roles(identity.RoleGuard, identity.RoleAdmin)}
	PolicyView   = Policy{Roles: identity.Roles(identity.RoleAdmin, identity.RoleGuard), HouseholdScoped: true}
	PolicyEvents = Policy{Roles: identity.Roles(identity.RoleAdmin, identity.RoleCommittee)}
)

// PolicyFor returns the rule guarding transition t.
func PolicyFor(t Transition) Policy {
	switch t {
	case TransitionApprove, TransitionDeny:
		return PolicyDecide
	case TransitionCheckIn, TransitionCheckOut:
		return PolicyGate
	}
	return Policy{}
}

// Scope narrows q to the visitors caller may see or act on under p. It
// reports false when caller is entitled to none of them.
func (p Policy) Scope(caller identity.Caller, q Query) (Query, bool) {
	if p.Unscoped(caller) {
		return q, true
	}
	if !p.HouseholdScoped || caller.HouseholdID == nil {
		return q, false
	}
	h := *caller.HouseholdID
	if q.HouseholdID != nil && *q.HouseholdID != h {
		return q, false
	}
	q.HouseholdID = &h
	return q, true
}
