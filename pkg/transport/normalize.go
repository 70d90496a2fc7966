package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/platform"
)

// Normalize converts a platform request into the canonical request.
//
// It fails with a bad request error when the method is missing, the URL
// cannot be parsed, or a JSON body is malformed. The body is only read for
// POST requests with a JSON content type, and reading it consumes the
// platform request: callers that need the raw request afterwards must clone
// it first.
func Normalize(ctx context.Context, req platform.Request) (*api.Request, error) {
	if req == nil || req.Method() == "" {
		return nil, api.NewBadRequestError("No method")
	}
	method := req.Method()
	headers := api.HeadersFrom(req.Headers())

	search, err := searchOf(req.URL())
	if err != nil {
		return nil, err
	}

	body, err := parseBody(ctx, req, method, headers)
	if err != nil {
		return nil, err
	}

	return api.NewRequest(method, headers, search, body)
}

// searchOf returns the query string of raw including the leading "?". raw
// must be an absolute URL with a host.
func searchOf(raw string) (string, error) {
	if raw == "" {
		return "", api.NewBadRequestError("Invalid request URL: empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", api.WrapBadRequest("Invalid request URL", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", api.WrapBadRequest("Invalid request URL", fmt.Errorf("%q is not an absolute URL", raw))
	}
	if u.RawQuery == "" {
		return "", nil
	}
	return "?" + u.RawQuery, nil
}

func parseBody(ctx context.Context, req platform.Request, method string, headers *api.HeaderMap) (any, error) {
	if !strings.EqualFold(method, http.MethodPost) || !isJSONContentType(headers.Value("content-type")) {
		return nil, nil
	}
	body, err := req.JSON(ctx)
	if err != nil {
		var httpErr *api.HTTPError
		switch {
		case errors.Is(err, platform.ErrBodyConsumed):
			return nil, api.WrapInternalServerError("reading request body", err)
		case errors.As(err, &httpErr):
			return nil, err
		}
		return nil, api.WrapBadRequest("Invalid JSON body", err)
	}
	return body, nil
}

// isJSONContentType accepts any casing and trailing parameters such as
// "; charset=utf-8".
func isJSONContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}
