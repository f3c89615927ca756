package gqlerrors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Pattern: Result comparison
func TestAccumulator(t *testing.T) {
	path := ast.Path{ast.PathName("hero"), ast.PathIndex(0)}
	locs := []gqlerror.Location{{Line: 1, Column: 3}}

	t.Run("aggregates become separate entries", func(t *testing.T) {
		acc := &Accumulator{}
		acc.AddKind(InvalidArgument, errors.Join(errors.New("a"), errors.Join(errors.New("b"), errors.New("c"))), path, locs)
		var got []string
		for _, e := range acc.List() {
			got = append(got, e.Message)
			require.Equal(t, path, e.Path)
			require.Equal(t, locs, e.Locations)
			require.Equal(t, InvalidArgument, e.Rule)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
			t.Fatalf("messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("located errors keep their own position", func(t *testing.T) {
		acc := &Accumulator{}
		own := New(UndefinedFragment, "own", ast.Path{ast.PathName("x")}, gqlerror.Location{Line: 9, Column: 9})
		acc.Add(fmt.Errorf("wrapped: %w", own), path, locs)
		got := acc.List()[0]
		require.Equal(t, "own", got.Message)
		require.Equal(t, ast.Path{ast.PathName("x")}, got.Path)
		require.Equal(t, []gqlerror.Location{{Line: 9, Column: 9}}, got.Locations)
		require.Equal(t, UndefinedFragment, KindOf(got))
	})

	t.Run("plain errors keep their cause", func(t *testing.T) {
		cause := errors.New("boom")
		acc := &Accumulator{}
		acc.AddKind(ResolverError, cause, path, locs)
		got := acc.List()[0]
		require.ErrorIs(t, got, cause)
		require.Equal(t, ResolverError, KindOf(got))
	})

	t.Run("nil errors are ignored", func(t *testing.T) {
		acc := &Accumulator{}
		acc.Add(nil, path, locs)
		acc.Append(nil)
		require.Zero(t, acc.Len())
		require.NotNil(t, acc.List())
	})

	t.Run("concurrent adds", func(t *testing.T) {
		acc := &Accumulator{}
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				acc.Add(fmt.Errorf("e%d", i), ast.Path{ast.PathIndex(i)}, nil)
			}()
		}
		wg.Wait()
		require.Equal(t, 50, acc.Len())
	})
}

func TestFlatten(t *testing.T) {
	list := gqlerror.List{gqlerror.Errorf("x"), nil, gqlerror.Errorf("y")}
	require.Len(t, Flatten(list), 2)
	require.Len(t, Flatten(errors.Join(list, errors.New("z"))), 3)
	require.Nil(t, Flatten(nil))
}
