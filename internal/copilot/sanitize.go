package copilot

import (
	"regexp"
	"strings"
)

const redacted = "[hidden]"

var (
	uuidPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-?[0-9a-f]{4}-?[0-9a-f]{4}-?[0-9a-f]{4}-?[0-9a-f]{12}\b`)
	jwtPattern  = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
)

// Sanitize removes identifiers and tokens from text surfaced to a caller.
// Any extra literal values (such as the caller's own ids) are removed too.
func Sanitize(text string, extra ...string) string {
	for _, s := range extra {
		if s != "" {
			text = strings.ReplaceAll(text, s, redacted)
		}
	}
	text = jwtPattern.ReplaceAllString(text, redacted)
	return uuidPattern.ReplaceAllString(text, redacted)
}

func sanitizeResult(r *ToolResult, extra ...string) *ToolResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Message = Sanitize(r.Message, extra...)
	if r.Visitor != nil {
		v := *r.Visitor
		v.Name = Sanitize(v.Name, extra...)
		out.Visitor = &v
	}
	out.Candidates = sanitizeAll(r.Candidates, extra...)
	out.Visitors = sanitizeAll(r.Visitors, extra...)
	return &out
}

func sanitizeAll(in []string, extra ...string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Sanitize(s, extra...)
	}
	return out
}
