package api

// Request is the canonical, engine-neutral request produced from a host
// platform request.
type Request struct {
	// Method is the HTTP method. Always non-empty.
	Method string

	// Headers holds the request headers with case-insensitive lookup.
	Headers *HeaderMap

	// Search is the raw query string including the leading "?", or "".
	Search string

	// Body is the decoded JSON body for JSON POST requests, nil otherwise.
	Body any
}

// NewRequest builds a Request. It fails with a bad request error when
// method is empty.
func NewRequest(method string, headers *HeaderMap, search string, body any) (*Request, error) {
	if method == "" {
		return nil, NewBadRequestError("No method")
	}
	if headers == nil {
		headers = NewHeaderMap()
	}
	return &Request{
		Method:  method,
		Headers: headers,
		Search:  search,
		Body:    body,
	}, nil
}
