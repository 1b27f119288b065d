// Package domain holds typed identifiers shared across packages.
//
// Each ID wraps a uuid.UUID so a HouseholdID can never be passed where a
// VisitorID is expected. Parse functions are trust-boundary helpers: they
// reject empty, malformed, and nil UUIDs with a validation error.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatepass/pkg/domain-errors"
)

type (
	UserID      uuid.UUID
	HouseholdID uuid.UUID
	VisitorID   uuid.UUID
	EventID     uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParseHouseholdID(s string) (HouseholdID, error) {
	u, err := parseUUID("household id", s)
	return HouseholdID(u), err
}

func ParseVisitorID(s string) (VisitorID, error) {
	u, err := parseUUID("visitor id", s)
	return VisitorID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID("event id", s)
	return EventID(u), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id HouseholdID) String() string { return uuid.UUID(id).String() }
func (id VisitorID) String() string   { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id HouseholdID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VisitorID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id HouseholdID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id VisitorID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = UserID(u)
	return err
}

func (id *HouseholdID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = HouseholdID(u)
	return err
}

func (id *VisitorID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = VisitorID(u)
	return err
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = EventID(u)
	return err
}

func NewVisitorID() VisitorID { return VisitorID(uuid.New()) }
func NewEventID() EventID     { return EventID(uuid.New()) }
