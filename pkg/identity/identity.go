// Package identity describes the authenticated caller handed to the visitor
// engine and the command resolver. A Caller is built once per request by the
// auth middleware and is read-only afterwards.
package identity

import (
	"slices"
	"strings"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
)

// Role is one of the closed set of community roles.
type Role string

const (
	RoleResident  Role = "resident"
	RoleGuard     Role = "guard"
	RoleAdmin     Role = "admin"
	RoleCommittee Role = "committee"
)

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleResident, RoleGuard, RoleAdmin, RoleCommittee:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// RoleSet is a small bitset over Role.
type RoleSet uint8

var roleBits = map[Role]RoleSet{
	RoleResident:  1 << 0,
	RoleGuard:     1 << 1,
	RoleAdmin:     1 << 2,
	RoleCommittee: 1 << 3,
}

// orderedRoles fixes the iteration order of Roles().
var orderedRoles = []Role{RoleResident, RoleGuard, RoleAdmin, RoleCommittee}

// Roles builds a set. Unknown roles are ignored.
func Roles(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= roleBits[r]
	}
	return s
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	bit, ok := roleBits[r]
	return ok && s&bit != 0
}

// Intersects reports whether the two sets share any role.
func (s RoleSet) Intersects(other RoleSet) bool {
	return s&other != 0
}

// Roles lists the members in a stable order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(orderedRoles))
	for _, r := range orderedRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	names := make([]string, 0, 4)
	for _, r := range s.Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ",")
}

// Caller is the authenticated actor for one request. HouseholdID is nil when
// the caller belongs to no household.
type Caller struct {
	ID          id.UserID
	Roles       RoleSet
	HouseholdID *id.HouseholdID
	DisplayName string
}

// HasRole reports whether the caller holds r.
func (c Caller) HasRole(r Role) bool {
	return c.Roles.Has(r)
}

// HasAnyRole reports whether the caller holds at least one of roles.
func (c Caller) HasAnyRole(roles ...Role) bool {
	return slices.ContainsFunc(roles, c.Roles.Has)
}

// BelongsTo reports whether the caller is a member of household h.
func (c Caller) BelongsTo(h id.HouseholdID) bool {
	return c.HouseholdID != nil && *c.HouseholdID == h
}

// HasHousehold reports whether the caller references a household.
func (c Caller) HasHousehold() bool {
	return c.HouseholdID != nil
}
