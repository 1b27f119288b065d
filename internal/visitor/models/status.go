package models

import "strings"

// Status is a visitor's position in the access lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusDenied     Status = "denied"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
)

// transitions is the full edge set. Anything not listed is rejected.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusDenied},
	StatusApproved:  {StatusCheckedIn},
	StatusCheckedIn: {StatusCheckedOut},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusCheckedIn, StatusCheckedOut:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> next is a declared edge.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// AllStatuses lists statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusDenied, StatusCheckedIn, StatusCheckedOut}
}

// ParseStatusFilter maps a list filter onto a status. Empty, "all" and any
// unrecognized value mean no filter.
func ParseStatusFilter(raw string) *Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return nil
	}
	return &s
}
