package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
)

func TestMetricsFollowEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	m := New()
	unsubscribe := m.Register()
	defer unsubscribe()

	ctx := context.Background()
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Duration: time.Millisecond})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{errors.New("x")}})
	eventbus.Publish(ctx, events.FieldFinish{TypeName: "Query", FieldName: "hero", Err: errors.New("x")})
	eventbus.Publish(ctx, events.FieldFinish{TypeName: "Query", FieldName: "hero"})
	eventbus.Publish(ctx, events.HTTPFinish{Status: http.StatusOK})

	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("query", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("query", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.fieldErrors.WithLabelValues("Query", "hero")))
	require.Equal(t, 1, testutil.CollectAndCount(m.resolverDuration))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "gqlengine_operations_total")
}
