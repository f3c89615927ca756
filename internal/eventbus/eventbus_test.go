package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }

type pong struct{}

// Pattern: Result comparison
func TestBus(t *testing.T) {
	t.Run("handlers receive events of their type in order", func(t *testing.T) {
		b := New()
		var got []string
		SubscribeTo(b, func(_ context.Context, e ping) { got = append(got, "a") })
		SubscribeTo(b, func(_ context.Context, e ping) { got = append(got, "b") })
		SubscribeTo(b, func(context.Context, pong) { got = append(got, "pong") })

		PublishTo(context.Background(), b, ping{n: 1})
		require.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("unsubscribe removes only its own handler", func(t *testing.T) {
		b := New()
		var got []string
		first := SubscribeTo(b, func(context.Context, ping) { got = append(got, "first") })
		SubscribeTo(b, func(context.Context, ping) { got = append(got, "second") })

		first()
		first()
		PublishTo(context.Background(), b, ping{})
		require.Equal(t, []string{"second"}, got)
		require.Equal(t, 1, Len[ping](b))
	})

	t.Run("unsubscribing during emit", func(t *testing.T) {
		b := New()
		var calls int
		var unsubscribe func()
		unsubscribe = SubscribeTo(b, func(context.Context, ping) { calls++; unsubscribe() })
		SubscribeTo(b, func(context.Context, ping) { calls++ })

		PublishTo(context.Background(), b, ping{})
		PublishTo(context.Background(), b, ping{})
		require.Equal(t, 3, calls)
		require.Equal(t, 1, Len[ping](b))
	})
}

func TestGlobal(t *testing.T) {
	var got []int
	require.NotPanics(t, func() {
		Subscribe(func(_ context.Context, e ping) { got = append(got, e.n) })()
		Publish(context.Background(), ping{n: 1})
	})

	Use(New())
	defer Use(nil)
	defer Subscribe(func(_ context.Context, e ping) { got = append(got, e.n) })()
	Publish(context.Background(), ping{n: 2})
	require.Equal(t, []int{2}, got)
}
