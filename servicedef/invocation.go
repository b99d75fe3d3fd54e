// Package servicedef contains the JSON types exchanged between a functions host and a
// custom handler, and the metadata files that describe a script directory to the host.
package servicedef

import (
	"encoding/json"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// ReturnBindingName is the binding name that refers to a function's return value.
const ReturnBindingName = "$return"

// InvokeRequest is the body of the POST /<functionName> request that the host sends to a
// custom handler. Data is keyed by input binding name.
type InvokeRequest struct {
	Data     map[string]json.RawMessage `json:"Data"`
	Metadata map[string]ldvalue.Value   `json:"Metadata"`
}

// InvokeResponse is the custom handler's reply. Outputs is keyed by output binding name;
// ReturnValue feeds the $return binding.
type InvokeResponse struct {
	Outputs     map[string]interface{} `json:"Outputs"`
	Logs        []string               `json:"Logs"`
	ReturnValue interface{}            `json:"ReturnValue,omitempty"`
}

// HTTPRequestData is the value of an httpTrigger binding in InvokeRequest.Data.
type HTTPRequestData struct {
	URL     string              `json:"Url"`
	Method  string              `json:"Method"`
	Query   map[string]string   `json:"Query"`
	Headers map[string][]string `json:"Headers"`
	Params  map[string]string   `json:"Params"`
	Body    json.RawMessage     `json:"Body,omitempty"`
}

// HTTPResponseData is the value of an http output binding.
type HTTPResponseData struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}
