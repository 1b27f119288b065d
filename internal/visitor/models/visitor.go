package models

import (
	"slices"
	"strings"
	"time"

	id "gatepass/pkg/domain"
)

// Visitor is one guest's access request. HostHouseholdID is fixed at creation.
type Visitor struct {
	ID              id.VisitorID
	Name            string
	Phone           string
	Purpose         string
	HostHouseholdID id.HouseholdID
	Status          Status
	ApprovedBy      *id.UserID
	ApprovedAt      *time.Time
	CheckedInAt     *time.Time
	CheckedOutAt    *time.Time
	ScheduledTime   *time.Time
	CreatedAt       time.Time
}

// Transition names a lifecycle operation that changes status.
type Transition string

const (
	TransitionApprove  Transition = "approve"
	TransitionDeny     Transition = "deny"
	TransitionCheckIn  Transition = "checkin"
	TransitionCheckOut Transition = "checkout"
)

// From is the status the transition requires.
func (t Transition) From() Status {
	switch t {
	case TransitionApprove, TransitionDeny:
		return StatusPending
	case TransitionCheckIn:
		return StatusApproved
	case TransitionCheckOut:
		return StatusCheckedIn
	}
	return ""
}

// To is the status the transition produces.
func (t Transition) To() Status {
	switch t {
	case TransitionApprove:
		return StatusApproved
	case TransitionDeny:
		return StatusDenied
	case TransitionCheckIn:
		return StatusCheckedIn
	case TransitionCheckOut:
		return StatusCheckedOut
	}
	return ""
}

// StatusChange is the set of fields a conditional update writes.
type StatusChange struct {
	To           Status
	ApprovedBy   *id.UserID
	ApprovedAt   *time.Time
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
}

// NewStatusChange builds the field updates for t performed by actor at now.
func NewStatusChange(t Transition, actor id.UserID, now time.Time) StatusChange {
	change := StatusChange{To: t.To()}
	switch t {
	case TransitionApprove:
		change.ApprovedBy = &actor
		change.ApprovedAt = &now
	case TransitionCheckIn:
		change.CheckedInAt = &now
	case TransitionCheckOut:
		change.CheckedOutAt = &now
	}
	return change
}

// Apply writes change onto v. Callers check the source status first.
func (v *Visitor) Apply(change StatusChange) {
	v.Status = change.To
	if change.ApprovedBy != nil {
		approver := *change.ApprovedBy
		v.ApprovedBy = &approver
	}
	if change.ApprovedAt != nil {
		at := *change.ApprovedAt
		v.ApprovedAt = &at
	}
	if change.CheckedInAt != nil {
		at := *change.CheckedInAt
		v.CheckedInAt = &at
	}
	if change.CheckedOutAt != nil {
		at := *change.CheckedOutAt
		v.CheckedOutAt = &at
	}
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (v *Visitor) Clone() *Visitor {
	if v == nil {
		return nil
	}
	out := *v
	out.ApprovedBy = clonePtr(v.ApprovedBy)
	out.ApprovedAt = clonePtr(v.ApprovedAt)
	out.CheckedInAt = clonePtr(v.CheckedInAt)
	out.CheckedOutAt = clonePtr(v.CheckedOutAt)
	out.ScheduledTime = clonePtr(v.ScheduledTime)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Query selects visitors. Empty fields do not filter. NameContains matches
// case-insensitively. A zero Limit returns every match. Results are ordered
// newest first.
type Query struct {
	HouseholdID  *id.HouseholdID
	Statuses     []Status
	NameContains string
	Limit        int
}

// Matches reports whether v satisfies q, ignoring Limit.
func (q Query) Matches(v *Visitor) bool {
	if q.HouseholdID != nil && v.HostHouseholdID != *q.HouseholdID {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, v.Status) {
		return false
	}
	if q.NameContains != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(q.NameContains)) {
		return false
	}
	return true
}
