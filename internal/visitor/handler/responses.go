package handler

import (
	"time"

	"gatepass/internal/visitor/models"
	audit "gatepass/pkg/platform/audit"
)

// VisitorResponse is the JSON form of a visitor.
type VisitorResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Purpose         string     `json:"purpose,omitempty"`
	HostHouseholdID string     `json:"host_household_id"`
	Status          string     `json:"status"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `json:"checked_out_at,omitempty"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// VisitorListResponse wraps GET /visitors.
type VisitorListResponse struct {
	Visitors []VisitorResponse `json:"visitors"`
	Count    int               `json:"count"`
}

// EventResponse is the JSON form of an audit event.
type EventResponse struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	ActorID    string            `json:"actor_id,omitempty"`
	SubjectID  string            `json:"subject_id"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventListResponse wraps GET /events.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

func FromVisitor(v *models.Visitor) VisitorResponse {
	resp := VisitorResponse{
		ID:              v.ID.String(),
		Name:            v.Name,
		Phone:           v.Phone,
		Purpose:         v.Purpose,
		HostHouseholdID: v.HostHouseholdID.String(),
		Status:          v.Status.String(),
		ApprovedAt:      v.ApprovedAt,
		CheckedInAt:     v.CheckedInAt,
		CheckedOutAt:    v.CheckedOutAt,
		ScheduledTime:   v.ScheduledTime,
		CreatedAt:       v.CreatedAt,
	}
	if v.ApprovedBy != nil {
		resp.ApprovedBy = v.ApprovedBy.String()
	}
	return resp
}

func FromVisitors(visitors []*models.Visitor) VisitorListResponse {
	out := make([]VisitorResponse, 0, len(visitors))
	for _, v := range visitors {
		out = append(out, FromVisitor(v))
	}
	return VisitorListResponse{Visitors: out, Count: len(out)}
}

func FromEvents(events []audit.Event) EventListResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp := EventResponse{
			ID:         e.ID.String(),
			Kind:       string(e.Kind),
			SubjectID:  e.SubjectID,
			Payload:    e.Payload,
			OccurredAt: e.OccurredAt,
		}
		if !e.ActorID.IsNil() {
			resp.ActorID = e.ActorID.String()
		}
		out = append(out, resp)
	}
	return EventListResponse{Events: out}
}
