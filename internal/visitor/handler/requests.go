package handler

import (
	"strings"
	"time"

	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
)

// CreateVisitorRequest is the body of POST /visitors.
type CreateVisitorRequest struct {
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Purpose         string     `json:"purpose,omitempty"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	HostHouseholdID string     `json:"host_household_id,omitempty"`

	parsedHousehold *id.HouseholdID
}

// Validate implements httputil.Validatable. Field rules live in the domain
// request; only the household reference is parsed here.
func (r *CreateVisitorRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	raw := strings.TrimSpace(r.HostHouseholdID)
	if raw == "" {
		return nil
	}
	householdID, err := id.ParseHouseholdID(raw)
	if err != nil {
		return err
	}
	r.parsedHousehold = &householdID
	return nil
}

// ToDomain builds the lifecycle create request.
func (r *CreateVisitorRequest) ToDomain() models.CreateVisitorRequest {
	return models.CreateVisitorRequest{
		Name:            r.Name,
		Phone:           r.Phone,
		Purpose:         r.Purpose,
		ScheduledTime:   r.ScheduledTime,
		HostHouseholdID: r.parsedHousehold,
	}
}

// TransitionRequest is the body of the approve, deny, checkin and checkout
// endpoints. Reason is only read by deny.
type TransitionRequest struct {
	VisitorID string `json:"visitor_id"`
	Reason    string `json:"reason,omitempty"`

	parsedVisitorID id.VisitorID
}

func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	visitorID, err := id.ParseVisitorID(strings.TrimSpace(r.VisitorID))
	if err != nil {
		return err
	}
	r.parsedVisitorID = visitorID
	return nil
}

// ParsedVisitorID returns the validated visitor id.
func (r *TransitionRequest) ParsedVisitorID() id.VisitorID {
	return r.parsedVisitorID
}
