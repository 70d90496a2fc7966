package engine

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/rhuss/gqlfunc/pkg/api"
)

// params are the GraphQL-over-HTTP request parameters.
type params struct {
	Query         string
	OperationName string
	Variables     map[string]any
}

const missingQuery = "GraphQL operations must contain a non-empty `query`."

// extractParams reads the parameters from the query string of a GET request
// or the JSON body of a POST request. Protocol violations the caller can
// fix come back as a result with a GraphQL errors document; malformed
// input comes back as a bad request error.
func extractParams(req *api.Request) (*params, *api.Result, error) {
	var p *params
	var err error

	switch strings.ToUpper(req.Method) {
	case http.MethodGet, http.MethodHead:
		p, err = paramsFromSearch(req.Search)
	case http.MethodPost:
		p, err = paramsFromBody(req.Body)
	default:
		result, err := errorResult(http.StatusMethodNotAllowed, "GraphQL only supports GET and POST requests.",
			"allow", "GET, POST")
		return nil, result, err
	}
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(p.Query) == "" {
		result, err := errorResult(http.StatusBadRequest, missingQuery)
		return nil, result, err
	}
	return p, nil, nil
}

func paramsFromSearch(search string) (*params, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(search, "?"))
	if err != nil {
		return nil, api.WrapBadRequest("Invalid query string", err)
	}
	p := &params{
		Query:         values.Get("query"),
		OperationName: values.Get("operationName"),
	}
	if raw := values.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Variables); err != nil {
			return nil, api.NewBadRequestError("Variables are invalid JSON.")
		}
	}
	return p, nil
}

func paramsFromBody(body any) (*params, error) {
	switch b := body.(type) {
	case nil:
		return nil, api.NewBadRequestError("POST body missing, invalid Content-Type, or JSON object has no keys.")
	case []any:
		return nil, api.NewBadRequestError("Batched operations are not supported.")
	case map[string]any:
		if len(b) == 0 {
			return nil, api.NewBadRequestError("POST body missing, invalid Content-Type, or JSON object has no keys.")
		}
		p := &params{}
		p.Query, _ = b["query"].(string)
		p.OperationName, _ = b["operationName"].(string)
		switch v := b["variables"].(type) {
		case nil:
		case map[string]any:
			p.Variables = v
		case string:
			if err := json.Unmarshal([]byte(v), &p.Variables); err != nil {
				return nil, api.NewBadRequestError("Variables are invalid JSON.")
			}
		default:
			return nil, api.NewBadRequestError("Variables must be a JSON object.")
		}
		return p, nil
	default:
		return nil, api.NewBadRequestError("POST body must be a JSON object.")
	}
}

type opKind int

const (
	opUnknown opKind = iota
	opQuery
	opMutation
	opSubscription
)

func (k opKind) String() string {
	switch k {
	case opQuery:
		return "query"
	case opMutation:
		return "mutation"
	case opSubscription:
		return "subscription"
	}
	return "unknown"
}

// operationType reports the kind of the operation that would run. A query
// that does not parse or names no existing operation is opUnknown and left
// to the executor to report.
func operationType(query, operationName string) opKind {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return opUnknown
	}
	op := doc.Operations.ForName(operationName)
	if op == nil {
		return opUnknown
	}
	switch op.Operation {
	case ast.Query:
		return opQuery
	case ast.Mutation:
		return opMutation
	case ast.Subscription:
		return opSubscription
	}
	return opUnknown
}
