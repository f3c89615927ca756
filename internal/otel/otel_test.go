package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/reqid"
)

func TestSpansFollowEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	unsubscribe := Register(tp.Tracer(tracerName))
	defer unsubscribe()

	ctx, rid := reqid.NewContext(context.Background())
	req := httptest.NewRequest("POST", "/graphql", nil)
	path := ast.Path{ast.PathName("hero")}

	eventbus.Publish(ctx, events.HTTPStart{Request: req, RequestID: rid})
	eventbus.Publish(ctx, events.GraphQLStart{OperationName: "Hero", OperationType: "query"})
	eventbus.Publish(ctx, events.FieldStart{TypeName: "Query", FieldName: "hero", Path: path})
	eventbus.Publish(ctx, events.FieldFinish{TypeName: "Query", FieldName: "hero", Path: path, Err: errors.New("boom")})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationName: "Hero", Errors: []error{errors.New("boom")}, Duration: time.Millisecond})
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, RequestID: rid, Status: 200, Operations: 1})

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	names := []string{spans[0].Name(), spans[1].Name(), spans[2].Name()}
	require.Equal(t, []string{"graphql.resolve", "graphql.operation", "http.request"}, names)

	resolve, operation, request := spans[0], spans[1], spans[2]
	require.Equal(t, operation.SpanContext().SpanID(), resolve.Parent().SpanID())
	require.Equal(t, request.SpanContext().SpanID(), operation.Parent().SpanID())
	require.Len(t, resolve.Events(), 1)

	var operations int64
	for _, kv := range request.Attributes() {
		if kv.Key == "graphql.operations" {
			operations = kv.Value.AsInt64()
		}
	}
	require.Equal(t, int64(1), operations)
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "gqlengine")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
