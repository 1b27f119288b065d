package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatepass/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant at trust boundaries:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"nil uuid", uuid.Nil.String(), true},
		{"sql injection attempt", "'; DROP TABLE visitors;--", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"null byte", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"uppercase valid uuid", "550E8400-E29B-41D4-A716-446655440000", false},
		{"valid uuid", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errVisitor := ParseVisitorID(tt.input)
			_, errHousehold := ParseHouseholdID(tt.input)
			_, errUser := ParseUserID(tt.input)
			_, errEvent := ParseEventID(tt.input)
			for _, err := range []error{errVisitor, errHousehold, errUser, errEvent} {
				if tt.wantErr {
					require.Error(t, err)
					assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				} else {
					require.NoError(t, err)
				}
			}
		})
	}
}

func TestIDs_JSONRoundTrip(t *testing.T) {
	original := struct {
		Visitor   VisitorID   `json:"visitor_id"`
		Household HouseholdID `json:"household_id"`
	}{NewVisitorID(), HouseholdID(uuid.New())}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(raw), original.Visitor.String())

	decoded := original
	decoded.Visitor = VisitorID{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}

func TestIsNil(t *testing.T) {
	assert.True(t, VisitorID{}.IsNil())
	assert.True(t, HouseholdID{}.IsNil())
	assert.False(t, NewVisitorID().IsNil())
}
