// Package integration provides end-to-end tests for gqlfunc.
//
// Tests run the built-in schema behind the real dispatcher, middleware and
// authentication stack, served in-process through both host bindings with
// net/http/httptest.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rhuss/gqlfunc/pkg/auth"
	"github.com/rhuss/gqlfunc/pkg/auth/apikey"
	"github.com/rhuss/gqlfunc/pkg/engine"
	"github.com/rhuss/gqlfunc/pkg/observability"
	"github.com/rhuss/gqlfunc/pkg/schema"
	"github.com/rhuss/gqlfunc/pkg/transport"
	transporthttp "github.com/rhuss/gqlfunc/pkg/transport/http"
	"github.com/rhuss/gqlfunc/pkg/transport/invocation"
)

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds one server per host binding. Both share the same
// handler and therefore the same engine.
type TestEnvironment struct {
	HTTPServer       *httptest.Server
	InvocationServer *httptest.Server
}

const (
	aliceKey   = "sk-alice"
	limitedKey = "sk-limited"
	maxBody    = 4096
)

func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

func setupTestEnvironment() *TestEnvironment {
	logger := slog.New(slog.DiscardHandler)

	eng, err := engine.New(engine.Config{
		Schema:   schema.SDL,
		Resolver: schema.NewResolver(schema.Config{TickInterval: 5 * time.Millisecond}),
		MaxDepth: 10,
		Logger:   logger,
	})
	if err != nil {
		panic("creating engine: " + err.Error())
	}

	// Requests without credentials run as the anonymous identity; a key
	// that is present must be valid.
	chain := &auth.AuthChain{
		Authenticators: []auth.Authenticator{apikey.New([]apikey.RawKeyEntry{
			{Key: aliceKey, Identity: auth.Identity{Subject: "alice", ServiceTier: "gold", Scopes: []string{"read"}}},
			{Key: limitedKey, Identity: auth.Identity{Subject: "limited", ServiceTier: "tiny"}},
		})},
		DefaultDecision: auth.Yes,
	}
	limiter := auth.NewInProcessLimiter(map[string]auth.TierConfig{"tiny": {RequestsPerMinute: 2}}, 0)

	handler := transport.NewHandler(eng, transport.Options{
		Context: auth.ContextFunc(chain, limiter),
		Middleware: []transport.Middleware{
			transport.RequestID(),
			transport.Logging(logger),
			observability.Middleware,
		},
	})

	adapter := transporthttp.NewAdapter(handler, transporthttp.Config{MaxBodySize: maxBody, Logger: logger})
	srv := transporthttp.NewServer(adapter.Handler(),
		transporthttp.WithLogger(logger),
		transporthttp.WithInFlight(adapter.InFlight()),
		transporthttp.WithExtraRoute("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-eng.Ready()
			w.Write([]byte("ok\n"))
		})),
		transporthttp.WithExtraRoute("GET /metrics", observability.Handler()),
	)

	host := invocation.NewHost(handler, invocation.Config{Logger: logger})

	return &TestEnvironment{
		HTTPServer:       httptest.NewServer(srv.Handler()),
		InvocationServer: httptest.NewServer(host.Handler()),
	}
}

// Teardown stops both servers.
func (env *TestEnvironment) Teardown() {
	env.HTTPServer.Close()
	env.InvocationServer.Close()
}

// graphqlURL returns the function route of the HTTP binding.
func graphqlURL() string {
	return testEnv.HTTPServer.URL + "/api/graphql"
}

// --- HTTP helpers ---

// postGraphQL sends a GraphQL POST with optional extra header pairs.
func postGraphQL(t *testing.T, body any, headers ...string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return do(t, http.MethodPost, graphqlURL(), bytes.NewReader(data), append([]string{"Content-Type", "application/json"}, headers...)...)
}

// getGraphQL sends a GraphQL GET with the given query parameters.
func getGraphQL(t *testing.T, values url.Values, headers ...string) *http.Response {
	t.Helper()
	return do(t, http.MethodGet, graphqlURL()+"?"+values.Encode(), nil, headers...)
}

func do(t *testing.T, method, target string, body io.Reader, headers ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// readBody reads and closes the response body.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// invoke sends one custom handler invocation carrying an HTTP trigger and
// returns the decoded reply.
func invoke(t *testing.T, trigger map[string]any) invocationReply {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"Data":     map[string]any{"req": trigger},
		"Metadata": map[string]any{"sys": map[string]any{"MethodName": "graphql"}},
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, testEnv.InvocationServer.URL+"/graphql", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(invocation.InvocationIDHeader, "inv-"+t.Name())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply invocationReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	return reply
}

type invocationReply struct {
	Outputs struct {
		Res invocation.HTTPOutput `json:"res"`
	} `json:"Outputs"`
	Logs []string `json:"Logs"`
}
