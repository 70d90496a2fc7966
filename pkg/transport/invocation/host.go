package invocation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/rhuss/gqlfunc/pkg/debug"
	"github.com/rhuss/gqlfunc/pkg/platform"
	"github.com/rhuss/gqlfunc/pkg/transport"
)

// InvocationIDHeader carries the host invocation ID on every request the
// Functions host sends to a custom handler.
const InvocationIDHeader = "X-Azure-Functions-InvocationId"

// Config holds configuration for the custom handler host.
type Config struct {
	// FunctionName is the function folder name; the host POSTs to /{FunctionName}.
	FunctionName string

	// RequestBinding and ResponseBinding name the HTTP trigger and output
	// bindings in function.json.
	RequestBinding  string
	ResponseBinding string

	// MaxPayloadSize limits the invocation payload. Zero disables the limit.
	MaxPayloadSize int64

	Logger *slog.Logger
}

// DefaultConfig returns the binding names used by the Functions templates.
func DefaultConfig() Config {
	return Config{
		FunctionName:    "graphql",
		RequestBinding:  "req",
		ResponseBinding: "res",
		MaxPayloadSize:  10 << 20, // 10 MB
	}
}

// Host serves a platform.Handler to the Functions host.
type Host struct {
	handler platform.Handler
	config  Config
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewHost creates a custom handler host. Empty fields of cfg fall back to
// DefaultConfig.
func NewHost(handler platform.Handler, cfg Config) *Host {
	def := DefaultConfig()
	if cfg.FunctionName == "" {
		cfg.FunctionName = def.FunctionName
	}
	if cfg.RequestBinding == "" {
		cfg.RequestBinding = def.RequestBinding
	}
	if cfg.ResponseBinding == "" {
		cfg.ResponseBinding = def.ResponseBinding
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Host{handler: handler, config: cfg, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /"+cfg.FunctionName, h.serveInvocation)
	return h
}

// Handler returns the http.Handler the Functions host talks to.
func (h *Host) Handler() http.Handler {
	return h.mux
}

func (h *Host) serveInvocation(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxPayloadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxPayloadSize)
	}

	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("invalid invocation payload", slog.String("error", err.Error()))
		http.Error(w, "invalid invocation payload", http.StatusBadRequest)
		return
	}
	trigger, err := payload.trigger(h.config.RequestBinding)
	if err != nil {
		h.logger.Warn("invalid invocation payload", slog.String("error", err.Error()))
		http.Error(w, "invalid invocation payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Header.Get(InvocationIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	debug.Log(h.logger, "invocation", "invocation received",
		"invocation_id", id, "method", trigger.Method, "url", trigger.URL)

	sink := &logSink{}
	inv := &platform.Invocation{
		ID:           id,
		FunctionName: h.config.FunctionName,
		Logger:       slog.New(newCaptureHandler(h.logger.Handler(), sink)).With(slog.String("invocation_id", id)),
	}

	var resp *platform.Response
	req, err := newTriggerRequest(trigger)
	if err != nil {
		inv.Log().Warn("undecodable trigger body", slog.String("error", err.Error()))
		resp = transport.ErrorResponse(err)
	} else {
		resp = h.handler.Handle(r.Context(), inv, req)
	}

	out := h.output(inv, resp)
	reply := Reply{
		Outputs: map[string]any{h.config.ResponseBinding: out},
		Logs:    sink.Lines(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		h.logger.Error("writing invocation reply", slog.String("error", err.Error()))
	}
}

// output converts a response into the HTTP output binding, draining a
// chunked body first. A stream failure replaces the response with a
// classified error because nothing has been sent yet.
func (h *Host) output(inv *platform.Invocation, resp *platform.Response) HTTPOutput {
	if resp == nil {
		resp = transport.ErrorResponse(nil)
	}

	body := resp.Body
	if resp.Streaming() {
		var buf []byte
		for chunk, err := range resp.Stream {
			if err != nil {
				inv.Log().Error("chunked response failed", slog.String("error", err.Error()))
				return h.output(inv, transport.ErrorResponse(err))
			}
			buf = append(buf, chunk...)
		}
		body = string(buf)
	}

	headers := make(map[string]string, len(resp.Headers))
	for name, value := range resp.Headers {
		if name == "transfer-encoding" {
			continue
		}
		headers[name] = value
	}
	headers["content-length"] = strconv.Itoa(len(body))

	return HTTPOutput{StatusCode: resp.Status, Headers: headers, Body: body}
}
