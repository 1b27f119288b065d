package copilot

import (
	"fmt"
	"strings"

	"gatepass/internal/visitor/models"
	dErrors "gatepass/pkg/domain-errors"
)

const maxListed = 50

// VisitorSummary is the only visitor shape a tool result may carry.
type VisitorSummary struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ToolResult is handed back to the model and returned to the caller. It
// holds human-readable fields only.
type ToolResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Code       string          `json:"code,omitempty"`
	Candidates []string        `json:"candidates,omitempty"`
	Visitor    *VisitorSummary `json:"visitor,omitempty"`
	Count      *int            `json:"count,omitempty"`
	Visitors   []string        `json:"visitors,omitempty"`
	Breakdown  map[string]int  `json:"breakdown,omitempty"`
}

// Response is the resolver's answer to one message.
type Response struct {
	Reply   string      `json:"response"`
	Action  string      `json:"action_taken,omitempty"`
	Details *ToolResult `json:"details,omitempty"`
}

func failure(code dErrors.Code, msg string) *ToolResult {
	return &ToolResult{Success: false, Message: msg, Code: string(code)}
}

// sourceLabel is how a transition's source state reads in prose.
func sourceLabel(t models.Transition) string {
	switch t.From() {
	case models.StatusCheckedIn:
		return "checked-in"
	default:
		return t.From().String()
	}
}

func notFoundResult(t models.Transition, name string) *ToolResult {
	return failure(dErrors.CodeNotFound,
		fmt.Sprintf("No %s visitor found with name '%s'", sourceLabel(t), name))
}

func ambiguousResult(candidates []*models.Visitor) *ToolResult {
	names := make([]string, 0, len(candidates))
	for _, v := range candidates {
		names = append(names, v.Name)
	}
	r := failure(dErrors.CodeAmbiguous,
		fmt.Sprintf("Multiple visitors found: %s. Please be more specific.", strings.Join(names, ", ")))
	r.Candidates = names
	return r
}

func successResult(t models.Transition, v *models.Visitor, reason string) *ToolResult {
	var msg string
	switch t {
	case models.TransitionApprove:
		msg = fmt.Sprintf("Approved '%s' successfully", v.Name)
	case models.TransitionDeny:
		msg = fmt.Sprintf("Denied '%s'. Reason: %s", v.Name, reason)
	case models.TransitionCheckIn:
		msg = fmt.Sprintf("Checked in '%s' successfully", v.Name)
	case models.TransitionCheckOut:
		msg = fmt.Sprintf("Checked out '%s' successfully", v.Name)
	}
	return &ToolResult{
		Success: true,
		Message: msg,
		Visitor: &VisitorSummary{Name: v.Name, Status: v.Status.String()},
	}
}

// engineFailure folds a lifecycle error into a result the model can explain.
// Internal details never reach the text.
func engineFailure(t models.Transition, name string, err error) *ToolResult {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeForbidden:
		return failure(code, fmt.Sprintf("You don't have permission to %s this visitor", verb(t)))
	case dErrors.CodeConflict:
		return failure(code, fmt.Sprintf("'%s' was just updated by someone else. Please check the current status.", name))
	case dErrors.CodeInvalidState, dErrors.CodeNotFound, dErrors.CodeValidation:
		return failure(code, dErrors.Message(err))
	default:
		return failure(dErrors.CodeInternal, fmt.Sprintf("Something went wrong while trying to %s '%s'", verb(t), name))
	}
}

func verb(t models.Transition) string {
	switch t {
	case models.TransitionCheckIn:
		return "check in"
	case models.TransitionCheckOut:
		return "check out"
	default:
		return string(t)
	}
}

// listResult summarizes up to maxListed visitors with a per-status count in
// first-seen order.
func listResult(visitors []*models.Visitor, filter *models.Status) *ToolResult {
	if len(visitors) > maxListed {
		visitors = visitors[:maxListed]
	}
	count := len(visitors)
	if count == 0 {
		msg := "No visitors found"
		if filter != nil {
			msg += fmt.Sprintf(" with status '%s'", filter.String())
		}
		return &ToolResult{Success: true, Message: msg, Count: &count, Visitors: []string{}}
	}

	var (
		order     []string
		breakdown = map[string]int{}
		lines     = make([]string, 0, count)
	)
	for _, v := range visitors {
		st := v.Status.String()
		if _, seen := breakdown[st]; !seen {
			order = append(order, st)
		}
		breakdown[st]++

		line := fmt.Sprintf("• %s - Status: %s - Phone: %s", v.Name, strings.ToUpper(st), v.Phone)
		if v.Purpose != "" {
			line += " - Purpose: " + v.Purpose
		}
		lines = append(lines, line)
	}

	parts := make([]string, 0, len(order))
	for _, st := range order {
		parts = append(parts, fmt.Sprintf("%d %s", breakdown[st], st))
	}
	return &ToolResult{
		Success:   true,
		Message:   fmt.Sprintf("Found %d total visitor(s): %s", count, strings.Join(parts, ", ")),
		Count:     &count,
		Visitors:  lines,
		Breakdown: breakdown,
	}
}
