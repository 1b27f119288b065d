package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/copilot"
	"gatepass/pkg/identity"
	"gatepass/pkg/testutil"
)

type stubResolver struct {
	gotCaller  identity.Caller
	gotMessage string
	resp       *copilot.Response
	err        error
}

func (s *stubResolver) Resolve(_ context.Context, caller identity.Caller, message string) (*copilot.Response, error) {
	s.gotCaller = caller
	s.gotMessage = message
	return s.resp, s.err
}

func newRouter(resolver Resolver) chi.Router {
	r := chi.NewRouter()
	New(resolver, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleChat(t *testing.T) {
	household := testutil.NewHouseholdID()
	resident := testutil.Resident("Priya", &household)

	t.Run("returns the resolver response", func(t *testing.T) {
		stub := &stubResolver{resp: &copilot.Response{
			Reply:  "Ramesh Kumar is approved.",
			Action: copilot.ToolApprove,
			Details: &copilot.ToolResult{
				Success: true,
				Message: "Approved 'Ramesh Kumar' successfully",
			},
		}}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/chat", map[string]string{"message": "  approve ramesh "})
		rr := testutil.DoRequest(newRouter(stub), testutil.WithCaller(req, resident))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "approve ramesh", stub.gotMessage)
		assert.Equal(t, resident.ID, stub.gotCaller.ID)

		body := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "Ramesh Kumar is approved.", (*body)["response"])
		assert.Equal(t, "approve_visitor", (*body)["action_taken"])
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/chat", map[string]string{"message": " "})
		rr := testutil.DoRequest(newRouter(&stubResolver{}), testutil.WithCaller(req, resident))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("oversized message is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/chat", map[string]string{"message": strings.Repeat("a", maxMessageRunes+1)})
		rr := testutil.DoRequest(newRouter(&stubResolver{}), testutil.WithCaller(req, resident))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("unauthenticated caller", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/chat", map[string]string{"message": "hi"})
		rr := testutil.DoRequest(newRouter(&stubResolver{}), req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}
