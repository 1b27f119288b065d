package testutil

import (
	"net/http"

	"github.com/google/uuid"

	id "gatepass/pkg/domain"
	"gatepass/pkg/identity"
	"gatepass/pkg/requestcontext"
)

// WithCaller attaches caller to the request the way the auth middleware does.
func WithCaller(req *http.Request, caller identity.Caller) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// NewHouseholdID returns a fresh household reference.
func NewHouseholdID() id.HouseholdID {
	return id.HouseholdID(uuid.New())
}

// Resident builds a resident of household h. Pass nil for a resident with no
// household.
func Resident(name string, h *id.HouseholdID) identity.Caller {
	return identity.Caller{
		ID:          id.UserID(uuid.New()),
		Roles:       identity.Roles(identity.RoleResident),
		HouseholdID: h,
		DisplayName: name,
	}
}

// Guard builds a guard with no household.
func Guard(name string) identity.Caller {
	return identity.Caller{
		ID:          id.UserID(uuid.New()),
		Roles:       identity.Roles(identity.RoleGuard),
		DisplayName: name,
	}
}

// Admin builds an administrator with no household.
func Admin(name string) identity.Caller {
	return identity.Caller{
		ID:          id.UserID(uuid.New()),
		Roles:       identity.Roles(identity.RoleAdmin),
		DisplayName: name,
	}
}

// Committee builds a committee member of household h.
func Committee(name string, h *id.HouseholdID) identity.Caller {
	return identity.Caller{
		ID:          id.UserID(uuid.New()),
		Roles:       identity.Roles(identity.RoleCommittee, identity.RoleResident),
		HouseholdID: h,
		DisplayName: name,
	}
}
