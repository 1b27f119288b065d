package service

import (
	"gatepass/internal/notify"
	"gatepass/internal/visitor/models"
	"gatepass/pkg/identity"
	audit "gatepass/pkg/platform/audit"
)

const defaultDenyReason = "No reason"

var transitionKinds = map[models.Transition]audit.EventKind{
	models.TransitionApprove:  audit.EventVisitorApproved,
	models.TransitionDeny:     audit.EventVisitorDenied,
	models.TransitionCheckIn:  audit.EventVisitorCheckedIn,
	models.TransitionCheckOut: audit.EventVisitorCheckedOut,
}

func displayName(caller identity.Caller, fallback string) string {
	if caller.DisplayName != "" {
		return caller.DisplayName
	}
	return fallback
}

func createdEvent(caller identity.Caller, v *models.Visitor) audit.Event {
	return audit.Event{
		Kind:      audit.EventVisitorCreated,
		ActorID:   caller.ID,
		SubjectID: v.ID.String(),
		Payload: map[string]string{
			"visitor_name": v.Name,
			"purpose":      v.Purpose,
		},
		OccurredAt: v.CreatedAt,
	}
}

func transitionEvent(caller identity.Caller, v *models.Visitor, t models.Transition, reason string) audit.Event {
	payload := map[string]string{"visitor_name": v.Name}
	switch t {
	case models.TransitionApprove:
		payload["approved_by"] = displayName(caller, "admin")
	case models.TransitionDeny:
		if reason == "" {
			reason = defaultDenyReason
		}
		payload["reason"] = reason
	case models.TransitionCheckIn, models.TransitionCheckOut:
		payload["guard"] = displayName(caller, "guard")
	}
	return audit.Event{
		Kind:      transitionKinds[t],
		ActorID:   caller.ID,
		SubjectID: v.ID.String(),
		Payload:   payload,
	}
}

func messageData(v *models.Visitor) map[string]string {
	return map[string]string{
		"visitor_id": v.ID.String(),
		"status":     v.Status.String(),
	}
}

func createdMessage(caller identity.Caller, v *models.Visitor) notify.Message {
	return notify.Message{
		Title: "New Visitor",
		Body:  v.Name + " is pending approval at " + displayName(caller, "a resident") + "'s home",
		Data:  messageData(v),
	}
}

func transitionMessage(t models.Transition, v *models.Visitor) notify.Message {
	msg := notify.Message{Data: messageData(v)}
	switch t {
	case models.TransitionApprove:
		msg.Title, msg.Body = "Visitor Approved", v.Name+" has been approved for entry"
	case models.TransitionDeny:
		msg.Title, msg.Body = "Visitor Denied", v.Name+" has been denied entry"
	case models.TransitionCheckIn:
		msg.Title, msg.Body = "Visitor Checked In", v.Name+" has checked in"
	case models.TransitionCheckOut:
		msg.Title, msg.Body = "Visitor Checked Out", v.Name+" has checked out"
	}
	return msg
}
