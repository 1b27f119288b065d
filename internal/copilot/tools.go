package copilot

import "gatepass/internal/visitor/models"

const (
	ToolApprove  = "approve_visitor"
	ToolDeny     = "deny_visitor"
	ToolCheckIn  = "checkin_visitor"
	ToolCheckOut = "checkout_visitor"
	ToolList     = "list_visitors"
)

// toolTransitions maps the name-targeted tools to the lifecycle transition
// they run.
var toolTransitions = map[string]models.Transition{
	ToolApprove:  models.TransitionApprove,
	ToolDeny:     models.TransitionDeny,
	ToolCheckIn:  models.TransitionCheckIn,
	ToolCheckOut: models.TransitionCheckOut,
}

func visitorNameParam(verb string) ToolParam {
	return ToolParam{
		Name:        "visitor_name",
		Description: "Name of the visitor to " + verb,
		Required:    true,
	}
}

// Tools is the fixed action set offered on every request.
var Tools = []Tool{
	{
		Name:        ToolApprove,
		Description: "Approve a pending visitor for entry",
		Params:      []ToolParam{visitorNameParam("approve")},
	},
	{
		Name:        ToolDeny,
		Description: "Deny a pending visitor",
		Params: []ToolParam{
			visitorNameParam("deny"),
			{Name: "reason", Description: "Reason for denial"},
		},
	},
	{
		Name:        ToolCheckIn,
		Description: "Check in an approved visitor",
		Params:      []ToolParam{visitorNameParam("check in")},
	},
	{
		Name:        ToolCheckOut,
		Description: "Check out a checked-in visitor",
		Params:      []ToolParam{visitorNameParam("check out")},
	},
	{
		Name:        ToolList,
		Description: "List visitors by status",
		Params: []ToolParam{{
			Name:        "status",
			Description: "Filter by status: pending, approved, denied, checked_in, checked_out, or all",
			Enum:        []string{"pending", "approved", "denied", "checked_in", "checked_out", "all"},
		}},
	},
}

type toolArgs struct {
	VisitorName string `json:"visitor_name"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
}
