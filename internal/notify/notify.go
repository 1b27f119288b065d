// Package notify delivers best-effort notifications about visitor
// transitions. Sinks report delivery errors; the Dispatcher in front of them
// absorbs those errors so callers never see them.
package notify

import (
	"context"

	id "gatepass/pkg/domain"
)

// TopicGuards reaches every guard on duty.
const TopicGuards = "guards"

// HouseholdTopic is the channel for members of household h.
func HouseholdTopic(h id.HouseholdID) string {
	return "household_" + h.String()
}

// Message is one notification. Data carries machine-readable context for
// client apps and is never rendered as text.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Sink delivers notifications to topic subscribers or to one user.
type Sink interface {
	PublishTopic(ctx context.Context, topic string, msg Message) error
	PublishUser(ctx context.Context, userID id.UserID, msg Message) error
}
