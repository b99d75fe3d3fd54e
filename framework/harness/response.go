package harness

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxBodyInDescription = 200

// Response is the outcome of a request to a host.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK returns true if the status code is less than 400.
func (r *Response) OK() bool {
	return r.StatusCode < 400
}

func (r *Response) Text() string {
	return string(r.Body)
}

// JSON unmarshals the response body into target.
func (r *Response) JSON(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("response body was not valid JSON (%w): %s", err, r.describeBody())
	}
	return nil
}

func (r *Response) String() string {
	return fmt.Sprintf("HTTP %d: %s", r.StatusCode, r.describeBody())
}

func (r *Response) describeBody() string {
	if len(r.Body) > maxBodyInDescription {
		return fmt.Sprintf("%q... (%d bytes)", r.Body[:maxBodyInDescription], len(r.Body))
	}
	return fmt.Sprintf("%q", r.Body)
}
