package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/debug"
	"github.com/rhuss/gqlfunc/pkg/transport"
)

// Engine executes GraphQL requests against one schema.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	once     sync.Once
	ready    chan struct{}
	schema   *graphql.Schema
	startErr error
}

// Ensure Engine implements transport.Engine at compile time.
var _ transport.Engine = (*Engine)(nil)

// New creates an engine. The schema is not parsed until StartInBackground.
func New(cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.Schema) == "" {
		return nil, errors.New("engine: schema must not be empty")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("engine: resolver must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		ready:  make(chan struct{}),
	}, nil
}

// StartInBackground parses the schema on a separate goroutine. Only the
// first call has an effect.
func (e *Engine) StartInBackground() {
	e.once.Do(func() {
		go e.start()
	})
}

func (e *Engine) start() {
	defer close(e.ready)

	opts := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{logger: e.logger}),
		graphql.UseFieldResolvers(),
	}
	if e.cfg.MaxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(e.cfg.MaxDepth))
	}
	if e.cfg.MaxParallelism > 0 {
		opts = append(opts, graphql.MaxParallelism(e.cfg.MaxParallelism))
	}
	if e.cfg.DisableIntrospection {
		opts = append(opts, graphql.DisableIntrospection())
	}

	schema, err := graphql.ParseSchema(e.cfg.Schema, e.cfg.Resolver, opts...)
	if err != nil {
		e.startErr = fmt.Errorf("parsing schema: %w", err)
		e.logger.Error("engine startup failed", slog.String("error", err.Error()))
		return
	}
	e.schema = schema
	e.logger.Info("engine ready")
}

// Ready returns a channel that is closed once startup has finished,
// successfully or not.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// StartupError returns the schema error once startup has failed. It is nil
// before Ready is closed and after a successful start.
func (e *Engine) StartupError() error {
	select {
	case <-e.ready:
		return e.startErr
	default:
		return nil
	}
}

// ExecuteRequest implements transport.Engine.
func (e *Engine) ExecuteRequest(ctx context.Context, req *api.Request, newContext transport.ContextFactory) (*api.Result, error) {
	e.StartInBackground()
	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, api.WrapInternalServerError("waiting for engine startup", ctx.Err())
	}
	if e.startErr != nil {
		return nil, api.WrapInternalServerError("engine failed to start", e.startErr)
	}

	p, rejected, err := extractParams(req)
	if err != nil || rejected != nil {
		return rejected, err
	}

	opType := operationType(p.Query, p.OperationName)
	query := p.Query
	if !debug.TraceEnabled(e.logger, "engine") {
		query = debug.Truncate(query, 200)
	}
	debug.Log(e.logger, "engine", "executing operation",
		"operation", p.OperationName, "kind", opType.String(), "query", query)
	if opType == opMutation && !strings.EqualFold(req.Method, http.MethodPost) {
		return errorResult(http.StatusMethodNotAllowed, "Can only perform a mutation operation from a POST request.",
			"allow", http.MethodPost)
	}

	rctx := ctx
	if newContext != nil {
		rctx, err = newContext(ctx)
		if err != nil {
			return nil, err
		}
	}

	if opType == opSubscription && acceptsEventStream(req.Headers) {
		return e.subscribe(rctx, p)
	}

	resp := e.schema.Exec(rctx, p.Query, p.OperationName, p.Variables)
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, api.WrapInternalServerError("encoding GraphQL response", err)
	}
	return jsonResult(http.StatusOK, data), nil
}

func jsonResult(status int, body []byte) *api.Result {
	headers := api.NewHeaderMap()
	headers.Set("content-type", "application/json; charset=utf-8")
	return &api.Result{Status: status, Headers: headers, Body: api.CompleteBody{Text: string(body)}}
}

// errorResult builds a GraphQL errors document with the given status and
// extra header pairs.
func errorResult(status int, message string, headerPairs ...string) (*api.Result, error) {
	data, err := json.Marshal(map[string]any{
		"errors": []map[string]string{{"message": message}},
	})
	if err != nil {
		return nil, api.WrapInternalServerError("encoding GraphQL error", err)
	}
	result := jsonResult(status, data)
	for i := 0; i+1 < len(headerPairs); i += 2 {
		result.Headers.Set(headerPairs[i], headerPairs[i+1])
	}
	return result, nil
}

func acceptsEventStream(h *api.HeaderMap) bool {
	return strings.Contains(strings.ToLower(h.Value("accept")), "text/event-stream")
}
