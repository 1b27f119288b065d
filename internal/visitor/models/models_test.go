package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
)

func TestTransitionGraph(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusApproved}:     true,
		{StatusPending, StatusDenied}:       true,
		{StatusApproved, StatusCheckedIn}:   true,
		{StatusCheckedIn, StatusCheckedOut}: true,
	}
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			assert.Equal(t, allowed[[2]Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, StatusDenied.IsTerminal())
	assert.True(t, StatusCheckedOut.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, Status("gone").IsTerminal())
}

func TestTransitionsMatchGraph(t *testing.T) {
	for _, tr := range []Transition{TransitionApprove, TransitionDeny, TransitionCheckIn, TransitionCheckOut} {
		assert.True(t, tr.From().CanTransitionTo(tr.To()), string(tr))
	}
}

func TestParseStatusFilter(t *testing.T) {
	for _, raw := range []string{"", "all", "ALL", "whatever"} {
		assert.Nil(t, ParseStatusFilter(raw), raw)
	}
	got := ParseStatusFilter(" Checked_In ")
	require.NotNil(t, got)
	assert.Equal(t, StatusCheckedIn, *got)
}

func TestStatusChange(t *testing.T) {
	actor := id.UserID(uuid.New())
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	v := &Visitor{Status: StatusPending}
	v.Apply(NewStatusChange(TransitionApprove, actor, now))
	assert.Equal(t, StatusApproved, v.Status)
	require.NotNil(t, v.ApprovedBy)
	assert.Equal(t, actor, *v.ApprovedBy)
	assert.Equal(t, now, *v.ApprovedAt)
	assert.Nil(t, v.CheckedInAt)

	v.Apply(NewStatusChange(TransitionCheckIn, actor, now.Add(time.Hour)))
	assert.Equal(t, StatusCheckedIn, v.Status)
	assert.Equal(t, now.Add(time.Hour), *v.CheckedInAt)
	assert.Equal(t, now, *v.ApprovedAt)

	deny := NewStatusChange(TransitionDeny, actor, now)
	assert.Nil(t, deny.ApprovedBy)
	assert.Equal(t, StatusDenied, deny.To)
}

func TestCloneIsDeep(t *testing.T) {
	at := time.Now()
	v := &Visitor{Name: "Ramesh", ApprovedAt: &at}
	c := v.Clone()
	*c.ApprovedAt = at.Add(time.Hour)
	c.Name = "Other"
	assert.Equal(t, at, *v.ApprovedAt)
	assert.Equal(t, "Ramesh", v.Name)
}

func TestPolicy(t *testing.T) {
	h := id.HouseholdID(uuid.New())
	other := id.HouseholdID(uuid.New())

	admin := identity.Caller{Roles: identity.Roles(identity.RoleAdmin)}
	guard := identity.Caller{Roles: identity.Roles(identity.RoleGuard)}
	resident := identity.Caller{Roles: identity.Roles(identity.RoleResident), HouseholdID: &h}
	guardAtHome := identity.Caller{Roles: identity.Roles(identity.RoleGuard), HouseholdID: &h}

	assert.True(t, PolicyDecide.Allows(admin, other))
	assert.True(t, PolicyDecide.Allows(resident, h))
	assert.False(t, PolicyDecide.Allows(resident, other))
	assert.False(t, PolicyDecide.Allows(guard, h))
	assert.True(t, PolicyDecide.Allows(guardAtHome, h))

	assert.True(t, PolicyGate.Allows(guard, other))
	assert.True(t, PolicyGate.Allows(admin, other))
	assert.False(t, PolicyGate.Allows(resident, h))

	assert.True(t, PolicyView.Unscoped(guard))
	assert.False(t, PolicyView.Unscoped(resident))
	assert.True(t, PolicyView.Allows(resident, h))
}

func TestCreateVisitorRequestValidate(t *testing.T) {
	valid := func() CreateVisitorRequest {
		return CreateVisitorRequest{Name: " Ramesh Kumar ", Phone: "+91 98765-43210", Purpose: " delivery "}
	}

	t.Run("valid request is normalized", func(t *testing.T) {
		req := valid()
		req.Normalize()
		require.NoError(t, req.Validate())
		assert.Equal(t, "Ramesh Kumar", req.Name)
		assert.Equal(t, "delivery", req.Purpose)
	})

	cases := map[string]func(*CreateVisitorRequest){
		"missing name":     func(r *CreateVisitorRequest) { r.Name = "  " },
		"long name":        func(r *CreateVisitorRequest) { r.Name = strings.Repeat("a", 129) },
		"missing phone":    func(r *CreateVisitorRequest) { r.Phone = "" },
		"letters in phone": func(r *CreateVisitorRequest) { r.Phone = "98765abc10" },
		"short phone":      func(r *CreateVisitorRequest) { r.Phone = "12345" },
		"inner plus":       func(r *CreateVisitorRequest) { r.Phone = "98+7654321" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid()
			mutate(&req)
			req.Normalize()
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestNormalizeReason(t *testing.T) {
	assert.Equal(t, "not expected", NormalizeReason("  not expected "))
	assert.Len(t, []rune(NormalizeReason(strings.Repeat("é", 600))), 512)
}

func TestPolicyScope(t *testing.T) {
	h := id.HouseholdID(uuid.New())
	other := id.HouseholdID(uuid.New())
	resident := identity.Caller{Roles: identity.Roles(identity.RoleResident), HouseholdID: &h}
	homeless := identity.Caller{Roles: identity.Roles(identity.RoleResident)}
	guard := identity.Caller{Roles: identity.Roles(identity.RoleGuard)}

	q, ok := PolicyView.Scope(guard, Query{NameContains: "john"})
	require.True(t, ok)
	assert.Nil(t, q.HouseholdID)

	q, ok = PolicyView.Scope(resident, Query{NameContains: "john"})
	require.True(t, ok)
	require.NotNil(t, q.HouseholdID)
	assert.Equal(t, h, *q.HouseholdID)
	assert.Equal(t, "john", q.NameContains)

	_, ok = PolicyView.Scope(resident, Query{HouseholdID: &other})
	assert.False(t, ok)

	_, ok = PolicyView.Scope(homeless, Query{})
	assert.False(t, ok)

	_, ok = PolicyGate.Scope(resident, Query{})
	assert.False(t, ok, "gate operations are never household scoped")

	_, ok = PolicyDecide.Scope(guard, Query{})
	assert.False(t, ok)
}
