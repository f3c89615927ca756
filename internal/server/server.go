package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	eventbus "github.com/hanpama/gqlengine/internal/eventbus"
	events "github.com/hanpama/gqlengine/internal/events"
	executor "github.com/hanpama/gqlengine/internal/executor"
	language "github.com/hanpama/gqlengine/internal/language"
	reqid "github.com/hanpama/gqlengine/internal/reqid"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor, and writes the execution results.
type Handler struct {
	exec   *executor.Executor
	opt    Options
	docs   *lru.Cache[string, *ast.QueryDocument]
	logger logrus.FieldLogger
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// DocumentCacheSize is the number of parsed documents kept by query
	// text. 0 disables caching.
	DocumentCacheSize int

	Logger logrus.FieldLogger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithDocumentCache(size int) Option      { return func(o *Options) { o.DocumentCacheSize = size } }
func WithLogger(l logrus.FieldLogger) Option { return func(o *Options) { o.Logger = l } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a GraphQL HTTP handler running requests on exec.
func New(exec *executor.Executor, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	h := &Handler{exec: exec, opt: op, logger: op.Logger}
	if h.logger == nil {
		h.logger = logrus.StandardLogger()
	}
	if op.DocumentCacheSize > 0 {
		cache, err := lru.New[string, *ast.QueryDocument](op.DocumentCacheSize)
		if err != nil {
			return nil, fmt.Errorf("document cache: %w", err)
		}
		h.docs = cache
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)
	logger := h.logger.WithField("request_id", rid)

	status, operations := http.StatusOK, 0
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r, RequestID: rid})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{
			Request:    r,
			RequestID:  rid,
			Status:     status,
			Operations: operations,
			Duration:   time.Since(start),
		})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		h.writeJSON(w, logger, status, errorResult("method not allowed"))
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, graphiqlPage)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		logger.WithError(berr).Debug("rejected graphql request")
		h.writeJSON(w, logger, status, &executor.ExecutionResult{Errors: gqlerror.List{berr}})
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	// GET must stay free of side effects; only queries run over it.
	if r.Method == http.MethodGet {
		if doc, _ := h.parse(req.Query); doc != nil {
			if op := selectedOperation(doc, req.OperationName); op != nil && op.Operation != ast.Query {
				status = http.StatusMethodNotAllowed
				w.Header().Set("Allow", http.MethodPost)
				h.writeJSON(w, logger, status, errorResult(fmt.Sprintf("Can only perform a %s operation from a POST request.", op.Operation)))
				return
			}
		}
	}

	if batch != nil {
		operations = len(batch)
		results := make([]*executor.ExecutionResult, len(batch))
		for i := range batch {
			results[i] = h.executeOne(ctx, batch[i])
		}
		h.writeJSON(w, logger, status, results)
		return
	}

	operations = 1
	if acceptsEventStream(r.Header.Get("Accept")) {
		if doc, _ := h.parse(req.Query); doc != nil && isSubscription(doc, req.OperationName) {
			h.stream(ctx, w, logger, req, doc)
			return
		}
	}

	res := h.executeOne(ctx, req)
	h.writeJSON(w, logger, status, res)
}

// parse returns the document for query, consulting the document cache.
// Documents are never mutated by the executor, so cached ones are shared.
func (h *Handler) parse(query string) (*ast.QueryDocument, *gqlerror.Error) {
	if h.docs != nil {
		if doc, ok := h.docs.Get(query); ok {
			return doc, nil
		}
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		if ge, ok := err.(*gqlerror.Error); ok {
			return nil, ge
		}
		return nil, &gqlerror.Error{Message: err.Error(), Err: err}
	}
	if h.docs != nil {
		h.docs.Add(query, doc)
	}
	return doc, nil
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) *executor.ExecutionResult {
	doc, perr := h.parse(req.Query)
	if perr != nil {
		return &executor.ExecutionResult{Errors: gqlerror.List{perr}}
	}

	opType := operationType(doc, req.OperationName)
	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.Execute(ctx, executor.Params{
		Document:      doc,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        appendErrors(nil, result),
		Duration:      time.Since(start),
		Introspection: result.Introspection(),
	})
	return result
}

func appendErrors(errs []error, result *executor.ExecutionResult) []error {
	for _, e := range result.Errors {
		errs = append(errs, e)
	}
	return errs
}

// stream delivers the results of a subscription as server-sent events, one
// "next" event per result followed by "complete".
func (h *Handler) stream(ctx context.Context, w http.ResponseWriter, logger logrus.FieldLogger, req GraphQLRequest, doc *ast.QueryDocument) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, logger, http.StatusNotAcceptable, errorResult("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	start := time.Now()
	opType := string(ast.Subscription)
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	var errs []error
	introspection := false
	defer func() {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query:         req.Query,
			OperationName: req.OperationName,
			OperationType: opType,
			Errors:        errs,
			Duration:      time.Since(start),
			Introspection: introspection,
		})
	}()

	results := h.exec.Subscribe(ctx, executor.Params{
		Document:      doc,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})
	for res := range results {
		errs = appendErrors(errs, res)
		introspection = introspection || res.Introspection()
		b, err := json.Marshal(res)
		if err != nil {
			logger.WithError(err).Error("encode subscription result")
			continue
		}
		if _, err := fmt.Fprintf(w, "event: next\ndata: %s\n\n", b); err != nil {
			logger.WithError(err).Debug("subscription client went away")
			return
		}
		flusher.Flush()
	}
	_, _ = io.WriteString(w, "event: complete\ndata:\n\n")
	flusher.Flush()
}

func selectedOperation(doc *ast.QueryDocument, name string) *ast.OperationDefinition {
	if op := doc.Operations.ForName(name); op != nil {
		return op
	}
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return nil
}

func operationType(doc *ast.QueryDocument, name string) string {
	if op := selectedOperation(doc, name); op != nil {
		return string(op.Operation)
	}
	return ""
}

func isSubscription(doc *ast.QueryDocument, name string) bool {
	op := selectedOperation(doc, name)
	return op != nil && op.Operation == ast.Subscription
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *gqlerror.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, gqlerror.Errorf("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, gqlerror.Errorf("invalid 'variables' JSON")
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, gqlerror.Errorf("failed to read body")
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, gqlerror.Errorf(errBodyTooLargeMessage)
		}

		// Try array (batch)
		var arr []GraphQLRequest
		if len(body) > 0 && body[0] == '[' {
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, gqlerror.Errorf("invalid JSON")
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, gqlerror.Errorf("empty batch")
			}
			return GraphQLRequest{}, arr, nil
		}
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, gqlerror.Errorf("invalid JSON")
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, gqlerror.Errorf("missing 'query'")
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, gqlerror.Errorf("unsupported Content-Type")
}

// ------------------ Response formatting ------------------

func errorResult(message string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: gqlerror.List{{Message: message}}}
}

func (h *Handler) writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		logger.WithError(err).Error("write graphql response")
	}
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool { return accepts(accept, "text/html", true) }

func acceptsEventStream(accept string) bool { return accepts(accept, "text/event-stream", false) }

func accepts(accept, mediaType string, wildcard bool) bool {
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, mediaType) || (wildcard && p == "*/*") {
			return true
		}
	}
	return false
}
