package reqid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestWithID(t *testing.T) {
	const supplied = "9b2f4c1e-8a57-4a38-9c3e-2d6f0e5b7a10"
	ctx, id := WithID(context.Background(), supplied)
	require.Equal(t, supplied, id)
	got, _ := FromContext(ctx)
	require.Equal(t, supplied, got)

	_, id = WithID(context.Background(), "not-a-uuid")
	require.NotEqual(t, "not-a-uuid", id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}
