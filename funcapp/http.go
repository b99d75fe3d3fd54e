package funcapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

// HTTPRequest is the value of an HTTP trigger.
type HTTPRequest struct {
	URL    string
	Method string
	Query  url.Values
	Header http.Header
	Params map[string]string
	Body   []byte
}

func newHTTPRequest(data servicedef.HTTPRequestData) (*HTTPRequest, error) {
	r := &HTTPRequest{
		URL:    data.URL,
		Method: data.Method,
		Query:  make(url.Values),
		Header: make(http.Header),
		Params: data.Params,
	}
	for k, v := range data.Query {
		r.Query.Set(k, v)
	}
	for k, vs := range data.Headers {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	body, err := Value{raw: data.Body}.Bytes()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}

// Param returns a query parameter, falling back to a route parameter.
func (r *HTTPRequest) Param(name string) (string, bool) {
	if vs, ok := r.Query[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	v, ok := r.Params[name]
	return v, ok
}

// JSON unmarshals the request body.
func (r *HTTPRequest) JSON(target interface{}) error {
	return json.Unmarshal(r.Body, target)
}

// HTTPResponse is the value of an HTTP output binding.
type HTTPResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewHTTPResponse creates a response with the given content type, which may be empty.
func NewHTTPResponse(status int, contentType string, body []byte) *HTTPResponse {
	r := &HTTPResponse{StatusCode: status, Header: make(http.Header), Body: body}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

// TextResponse creates a text/plain response.
func TextResponse(status int, text string) *HTTPResponse {
	return NewHTTPResponse(status, "text/plain; charset=utf-8", []byte(text))
}

// JSONResponse creates an application/json response whose body is indented by two spaces.
func JSONResponse(status int, value interface{}) (*HTTPResponse, error) {
	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}
	return NewHTTPResponse(status, "application/json", body), nil
}

func (r *HTTPResponse) wire() servicedef.HTTPResponseData {
	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	data := servicedef.HTTPResponseData{StatusCode: status, Body: string(r.Body)}
	if len(r.Header) > 0 {
		keys := make([]string, 0, len(r.Header))
		for k := range r.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		data.Headers = make(map[string]string, len(keys))
		for _, k := range keys {
			data.Headers[k] = r.Header.Get(k)
		}
	}
	return data
}

// encodeHTTPResponse converts a value set by a handler into an HTTP output. Plain strings
// and bytes become 200 responses.
func encodeHTTPResponse(value interface{}) (servicedef.HTTPResponseData, error) {
	switch v := value.(type) {
	case *HTTPResponse:
		if v == nil {
			return NewHTTPResponse(http.StatusNoContent, "", nil).wire(), nil
		}
		return v.wire(), nil
	case HTTPResponse:
		return v.wire(), nil
	case string:
		return TextResponse(http.StatusOK, v).wire(), nil
	case []byte:
		return NewHTTPResponse(http.StatusOK, "application/octet-stream", v).wire(), nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return servicedef.HTTPResponseData{}, err
		}
		return NewHTTPResponse(http.StatusOK, "application/octet-stream", data).wire(), nil
	case nil:
		return NewHTTPResponse(http.StatusNoContent, "", nil).wire(), nil
	default:
		resp, err := JSONResponse(http.StatusOK, v)
		if err != nil {
			return servicedef.HTTPResponseData{}, fmt.Errorf("cannot encode %T as an HTTP response: %w", value, err)
		}
		return resp.wire(), nil
	}
}
