package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatepass/pkg/domain"
	"gatepass/pkg/identity"
)

func TestRequestScopedValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestID(ctx))

	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx = WithTime(ctx, fixed)
	assert.Equal(t, fixed, Now(ctx))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before))
}

func TestCaller(t *testing.T) {
	_, ok := Caller(context.Background())
	assert.False(t, ok)

	want := identity.Caller{ID: id.UserID(uuid.New()), Roles: identity.Roles(identity.RoleGuard)}
	got, ok := Caller(WithCaller(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}
