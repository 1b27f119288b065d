package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Guard ")
	require.NoError(t, err)
	assert.Equal(t, RoleGuard, r)

	_, err = ParseRole("janitor")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRoleSet(t *testing.T) {
	s := Roles(RoleAdmin, RoleResident, Role("bogus"))

	assert.True(t, s.Has(RoleAdmin))
	assert.True(t, s.Has(RoleResident))
	assert.False(t, s.Has(RoleGuard))
	assert.False(t, s.Has(Role("bogus")))
	assert.Equal(t, []Role{RoleResident, RoleAdmin}, s.Roles())
	assert.Equal(t, "resident,admin", s.String())
	assert.True(t, s.Intersects(Roles(RoleGuard, RoleAdmin)))
	assert.False(t, s.Intersects(Roles(RoleGuard, RoleCommittee)))
	assert.False(t, RoleSet(0).Intersects(s))
}

func TestCallerHousehold(t *testing.T) {
	h := id.HouseholdID(uuid.New())
	other := id.HouseholdID(uuid.New())

	member := Caller{Roles: Roles(RoleResident), HouseholdID: &h}
	assert.True(t, member.BelongsTo(h))
	assert.False(t, member.BelongsTo(other))
	assert.True(t, member.HasAnyRole(RoleGuard, RoleResident))

	homeless := Caller{Roles: Roles(RoleResident)}
	assert.False(t, homeless.HasHousehold())
	assert.False(t, homeless.BelongsTo(h))
}
