package copilot

import (
	"context"
	"fmt"
	"strings"

	"gatepass/internal/visitor/models"
	"gatepass/pkg/identity"
	"gatepass/pkg/requestcontext"
)

const promptRules = `SECURITY RULES:
1. Never mention or expose IDs, keys, tokens, or other technical identifiers.
2. Never show household IDs, user IDs, visitor IDs, or any UUID value.
3. Never reveal internal system or database details.
4. Keep every reply friendly and non-technical.

When the user asks to see or list visitors, always call list_visitors; the visitor list above may be incomplete.

CAPABILITIES:
1. approve_visitor(visitor_name) - approve a pending visitor
2. deny_visitor(visitor_name, reason) - deny a pending visitor
3. checkin_visitor(visitor_name) - check in an approved visitor (guards and admins)
4. checkout_visitor(visitor_name) - check out a checked-in visitor (guards and admins)
5. list_visitors(status) - list visitors; status is pending, approved, denied, checked_in, checked_out, or all

RULES:
- Residents may only approve or deny visitors for their own household.
- Guards and admins may check any visitor in or out.
- Be friendly and conversational.`

// systemPrompt describes the caller and a digest of the visitors they can
// see. The digest is advisory; tools always re-read the store.
func (r *Resolver) systemPrompt(ctx context.Context, caller identity.Caller) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant for a community gate management system.\n\n")
	b.WriteString("CURRENT USER:\n")
	fmt.Fprintf(&b, "- Name: %s\n", caller.DisplayName)
	fmt.Fprintf(&b, "- Roles: %s\n", strings.ReplaceAll(caller.Roles.String(), ",", ", "))
	if caller.HouseholdID != nil {
		fmt.Fprintf(&b, "- Household reference: %s (internal, never repeat it)\n", caller.HouseholdID.String())
	} else {
		b.WriteString("- Household reference: none\n")
	}

	b.WriteString("\nCurrent visitors:\n")
	b.WriteString(r.digest(ctx, caller))
	b.WriteString("\n")
	b.WriteString(promptRules)
	return b.String()
}

func (r *Resolver) digest(ctx context.Context, caller identity.Caller) string {
	visitors, err := r.engine.Search(ctx, caller, models.PolicyView, models.Query{Limit: digestSize})
	if err != nil {
		r.logger.WarnContext(ctx, "copilot visitor digest unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	if len(visitors) == 0 {
		return "No visitors\n"
	}
	var b strings.Builder
	for _, v := range visitors {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", v.Name, v.Status, v.Phone)
	}
	return b.String()
}
